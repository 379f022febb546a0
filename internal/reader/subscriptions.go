package reader

import (
	"context"
	"fmt"

	"github.com/odysseus0/sharedfeed/internal/fetch"
	"github.com/odysseus0/sharedfeed/internal/model"
	"github.com/odysseus0/sharedfeed/internal/store"
)

// Subscribe subscribes the user to the feed at rawURL. A feed already known
// to the store is subscribed without fetching. A new feed is fetched first;
// when that fails, the page is searched for a linked feed. A nil feed with a
// nil error means nothing usable was found and nothing changed.
func (m *Manager) Subscribe(ctx context.Context, userID int64, rawURL string) (*model.Feed, error) {
	return m.subscribe(ctx, userID, rawURL, true)
}

func (m *Manager) subscribe(ctx context.Context, userID int64, rawURL string, discover bool) (*model.Feed, error) {
	normalized, err := fetch.NormalizeURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}

	feed, created, err := m.store.CreateFeedSubscription(ctx, userID, normalized)
	if err != nil {
		return nil, classify(err)
	}
	if !created {
		m.logger.Info("subscribed to existing feed", "user", userID, "feed", feed.ID, "url", feed.URL)
		return &feed, nil
	}

	if fetchErr := m.fetcher.FetchFeed(ctx, feed.ID); fetchErr != nil {
		m.logger.Warn("new feed failed to fetch", "user", userID, "url", normalized, "err", fetchErr)
		if _, err := m.store.Unsubscribe(ctx, userID, feed.ID); err != nil {
			return nil, classify(err)
		}
		if !discover {
			return nil, nil
		}
		found, ok := m.fetcher.Autodiscover(ctx, normalized)
		if !ok {
			return nil, nil
		}
		if again, err := fetch.NormalizeURL(found); err == nil && again == normalized {
			return nil, nil
		}
		m.logger.Info("discovered feed", "page", normalized, "feed", found)
		return m.subscribe(ctx, userID, found, false)
	}

	fetched, err := m.store.GetSubscribedFeed(ctx, userID, feed.ID)
	if err != nil {
		return nil, classify(err)
	}
	m.logger.Info("subscribed to new feed", "user", userID, "feed", fetched.ID, "url", fetched.URL)
	return &fetched, nil
}

func (m *Manager) Unsubscribe(ctx context.Context, userID, feedID int64) (model.UnsubscribeResult, error) {
	res, err := m.store.Unsubscribe(ctx, userID, feedID)
	if err != nil {
		return model.UnsubscribeResult{}, classify(err)
	}
	m.logger.Info("unsubscribed", "user", userID, "feed", feedID)
	if res.DeletedFolderID != nil {
		m.logger.Warn("folder deleted after losing its last feed", "user", userID, "folder", *res.DeletedFolderID)
	}
	if res.FeedDeleted {
		m.logger.Warn("feed deleted with its last subscriber", "feed", feedID)
	}
	return res, nil
}

func (m *Manager) AddFeedToFolder(ctx context.Context, userID, feedID, folderID int64) (model.FolderChange, error) {
	change, err := m.store.AddFeedToFolder(ctx, userID, feedID, folderID)
	if err != nil {
		return model.FolderChange{}, classify(err)
	}
	m.logFolderChange(userID, change)
	return change, nil
}

func (m *Manager) AddFeedToNewFolder(ctx context.Context, userID, feedID int64, title string) (model.FolderChange, error) {
	change, err := m.store.AddFeedToNewFolder(ctx, userID, feedID, title)
	if err != nil {
		return model.FolderChange{}, classify(err)
	}
	m.logger.Info("folder created", "user", userID, "folder", change.NewFolder.ID, "title", change.NewFolder.Title)
	m.logFolderChange(userID, change)
	return change, nil
}

func (m *Manager) logFolderChange(userID int64, change model.FolderChange) {
	m.logger.Info("feed placed in folder", "user", userID, "feed", change.Feed.ID, "folder", change.NewFolder.ID)
	if change.OldFolderDeleted && change.OldFolder != nil {
		m.logger.Warn("folder deleted after losing its last feed", "user", userID, "folder", change.OldFolder.ID, "title", change.OldFolder.Title)
	}
}

// RemoveFeedFromFolder reports whether the feed's former folder still exists.
func (m *Manager) RemoveFeedFromFolder(ctx context.Context, userID, feedID int64) (bool, error) {
	exists, err := m.store.RemoveFeedFromFolder(ctx, userID, feedID)
	if err != nil {
		return false, classify(err)
	}
	if !exists {
		m.logger.Warn("folder deleted after losing its last feed", "user", userID, "feed", feedID)
	}
	return exists, nil
}

func (m *Manager) ListFeeds(ctx context.Context, userID int64) ([]model.Feed, error) {
	feeds, err := m.store.ListSubscribedFeeds(ctx, userID)
	return feeds, classify(err)
}

func (m *Manager) ListFolders(ctx context.Context, userID int64) ([]model.Folder, error) {
	folders, err := m.store.ListFolders(ctx, userID)
	return folders, classify(err)
}
