package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "sharedfeed.db")
	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewStore(db)
}

func mustCreateUser(t *testing.T, s *Store, email string) User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), email)
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func mustSubscribeNew(t *testing.T, s *Store, userID int64, url string) Feed {
	t.Helper()
	feed, created, err := s.CreateFeedSubscription(context.Background(), userID, url)
	if err != nil {
		t.Fatalf("create feed subscription %s: %v", url, err)
	}
	if !created {
		t.Fatalf("expected %s to be a new feed", url)
	}
	return feed
}

func mustSubscribeExisting(t *testing.T, s *Store, userID, feedID int64) {
	t.Helper()
	if _, err := s.SubscribeExisting(context.Background(), userID, feedID); err != nil {
		t.Fatalf("subscribe user %d to feed %d: %v", userID, feedID, err)
	}
}

func mustCreateEntry(t *testing.T, s *Store, feedID int64, guid string, published time.Time) int64 {
	t.Helper()
	id, err := s.CreateEntry(context.Background(), UpsertEntryInput{
		FeedID:      feedID,
		GUID:        guid,
		Title:       guid,
		URL:         "https://example.com/" + guid,
		PublishedAt: published,
	})
	if err != nil {
		t.Fatalf("create entry %s: %v", guid, err)
	}
	return id
}

func mustCreateEntries(t *testing.T, s *Store, feedID int64, prefix string, n int) []int64 {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, mustCreateEntry(t, s, feedID, fmt.Sprintf("%s-%d", prefix, i), base.Add(time.Duration(i)*time.Hour)))
	}
	return ids
}

func mustCountStates(t *testing.T, s *Store, userID, feedID int64) int {
	t.Helper()
	n, err := s.CountStates(context.Background(), userID, feedID)
	if err != nil {
		t.Fatalf("count states: %v", err)
	}
	return n
}

func readFlags(t *testing.T, s *Store, userID int64, entryIDs []int64) map[int64]bool {
	t.Helper()
	out := make(map[int64]bool, len(entryIDs))
	for _, id := range entryIDs {
		read, err := s.ReadBy(context.Background(), userID, id)
		if err != nil {
			t.Fatalf("read by user %d entry %d: %v", userID, id, err)
		}
		out[id] = read
	}
	return out
}
