package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/odysseus0/sharedfeed/internal/config"
	"github.com/odysseus0/sharedfeed/internal/model"
	"github.com/odysseus0/sharedfeed/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "sharedfeed.db")
	db, err := store.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return store.NewStore(db)
}

func testConfig() config.Config {
	return config.Config{
		HTTPTimeout:      5 * time.Second,
		FetchConcurrency: 4,
		UserAgent:        "sharedfeed-test/1.0",
	}
}

func newTestFetcher(s *store.Store) *Fetcher {
	return NewFetcher(s, nil, testConfig(), nil)
}

func mustCreateUser(t *testing.T, s *store.Store, email string) model.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), email)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func mustSubscribe(t *testing.T, s *store.Store, userID int64, url string) model.Feed {
	t.Helper()
	feed, _, err := s.CreateFeedSubscription(context.Background(), userID, url)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	return feed
}

func mustListAll(t *testing.T, s *store.Store, userID, feedID int64) []model.Entry {
	t.Helper()
	entries, err := s.ListEntries(context.Background(), userID, model.EntryListOptions{FeedID: feedID, Status: "all", Limit: 50})
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	return entries
}

func serveXML(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}
