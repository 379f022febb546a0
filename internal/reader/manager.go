// Package reader exposes the per-user operations of the feed reader:
// subscription lifecycle, folder placement, read-state changes, unread
// queries, refresh and OPML import/export.
package reader

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/odysseus0/sharedfeed/internal/fetch"
	"github.com/odysseus0/sharedfeed/internal/model"
	"github.com/odysseus0/sharedfeed/internal/store"
)

// Fetcher is the network side the manager drives. *fetch.Fetcher satisfies it.
type Fetcher interface {
	FetchFeed(ctx context.Context, feedID int64) error
	FetchFeeds(ctx context.Context, feedIDs []int64, onResult fetch.ProgressFn) (model.FetchReport, error)
	Autodiscover(ctx context.Context, rawURL string) (string, bool)
}

type Manager struct {
	store   *store.Store
	fetcher Fetcher
	logger  *log.Logger
}

func NewManager(s *store.Store, fetcher Fetcher, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{store: s, fetcher: fetcher, logger: logger}
}

// classify passes caller-facing errors through and reports anything else
// coming out of the store as ErrStoreFailure.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case store.IsDomainError(err),
		errors.Is(err, store.ErrStoreFailure),
		errors.Is(err, fetch.ErrFetchFailed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", store.ErrStoreFailure, err)
	}
}

func (m *Manager) CreateUser(ctx context.Context, email string) (model.User, error) {
	u, err := m.store.CreateUser(ctx, email)
	if err != nil {
		return model.User{}, classify(err)
	}
	m.logger.Info("user created", "user", u.ID, "email", u.Email)
	return u, nil
}

func (m *Manager) UserByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := m.store.GetUserByEmail(ctx, email)
	return u, classify(err)
}

func (m *Manager) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := m.store.ListUsers(ctx)
	return users, classify(err)
}

// DeleteUser unsubscribes the user from everything, collecting orphaned
// feeds and emptied folders, then removes the user.
func (m *Manager) DeleteUser(ctx context.Context, userID int64) ([]model.UnsubscribeResult, error) {
	results, err := m.store.DeleteUser(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	for _, r := range results {
		if r.FeedDeleted {
			m.logger.Warn("feed deleted with its last subscriber", "user", userID, "feed", r.FeedID)
		}
	}
	m.logger.Info("user deleted", "user", userID, "subscriptions", len(results))
	return results, nil
}
