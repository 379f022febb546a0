package reader

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/odysseus0/sharedfeed/internal/fetch"
	"github.com/odysseus0/sharedfeed/internal/model"
	"github.com/odysseus0/sharedfeed/internal/store"
)

// fakeFetcher serves canned items per feed URL instead of using the network.
type fakeFetcher struct {
	store *store.Store

	mu       sync.Mutex
	items    map[string][]string
	failing  map[string]bool
	discover map[string]string
	fetched  []int64
}

func newFakeFetcher(s *store.Store) *fakeFetcher {
	return &fakeFetcher{
		store:    s,
		items:    map[string][]string{},
		failing:  map[string]bool{},
		discover: map[string]string{},
	}
}

func (f *fakeFetcher) FetchFeed(ctx context.Context, feedID int64) error {
	f.mu.Lock()
	f.fetched = append(f.fetched, feedID)
	f.mu.Unlock()

	feed, err := f.store.GetFeedByID(ctx, feedID)
	if err != nil {
		return err
	}
	if f.failing[feed.URL] {
		return fmt.Errorf("%w: %s: http 404", fetch.ErrFetchFailed, feed.URL)
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, guid := range f.items[feed.URL] {
		if _, _, err := f.store.UpsertEntry(ctx, model.UpsertEntryInput{
			FeedID:      feedID,
			GUID:        guid,
			Title:       guid,
			PublishedAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeFetcher) FetchFeeds(ctx context.Context, feedIDs []int64, onResult fetch.ProgressFn) (model.FetchReport, error) {
	report := model.FetchReport{StartedAt: time.Now()}
	for i, id := range feedIDs {
		result := model.FetchResult{FeedID: id}
		if err := f.FetchFeed(ctx, id); err != nil {
			result.Error = err.Error()
		}
		report.Results = append(report.Results, result)
		if onResult != nil {
			onResult(i+1, len(feedIDs), result)
		}
	}
	report.EndedAt = time.Now()
	return report, nil
}

func (f *fakeFetcher) Autodiscover(_ context.Context, rawURL string) (string, bool) {
	found, ok := f.discover[rawURL]
	return found, ok
}

func (f *fakeFetcher) fetchedIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.fetched...)
}

func newTestManager(t *testing.T) (*Manager, *store.Store, *fakeFetcher) {
	t.Helper()
	db, err := store.OpenDB(filepath.Join(t.TempDir(), "sharedfeed.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	s := store.NewStore(db)
	f := newFakeFetcher(s)
	return NewManager(s, f, nil), s, f
}

func mustCreateUser(t *testing.T, m *Manager, email string) model.User {
	t.Helper()
	u, err := m.CreateUser(context.Background(), email)
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func mustSubscribe(t *testing.T, m *Manager, userID int64, url string) model.Feed {
	t.Helper()
	feed, err := m.Subscribe(context.Background(), userID, url)
	if err != nil {
		t.Fatalf("subscribe %s: %v", url, err)
	}
	if feed == nil {
		t.Fatalf("subscribe %s: no feed", url)
	}
	return *feed
}

func folderArg(id int64) string {
	return fmt.Sprintf("%d", id)
}
