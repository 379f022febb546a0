package reader

import (
	"context"

	"github.com/odysseus0/sharedfeed/internal/model"
)

// RefreshFeed fetches one subscribed feed and returns the user's unread
// entries for it.
func (m *Manager) RefreshFeed(ctx context.Context, userID, feedID int64) ([]model.Entry, error) {
	if _, err := m.store.GetSubscribedFeed(ctx, userID, feedID); err != nil {
		return nil, classify(err)
	}
	if err := m.fetcher.FetchFeed(ctx, feedID); err != nil {
		return nil, classify(err)
	}
	return m.UnreadInFeed(ctx, userID, feedID)
}

// RefreshFolder fetches every feed of a folder, or of every subscription for
// "all", and returns the unread entries of that folder. Per-feed failures are
// reported in the fetch report.
func (m *Manager) RefreshFolder(ctx context.Context, userID int64, folder string) ([]model.Entry, model.FetchReport, error) {
	var feedIDs []int64
	if isAllFolders(folder) {
		feeds, err := m.store.ListSubscribedFeeds(ctx, userID)
		if err != nil {
			return nil, model.FetchReport{}, classify(err)
		}
		for _, f := range feeds {
			feedIDs = append(feedIDs, f.ID)
		}
	} else {
		folderID, err := ParseFolderID(folder)
		if err != nil {
			return nil, model.FetchReport{}, err
		}
		f, err := m.store.GetFolder(ctx, userID, folderID)
		if err != nil {
			return nil, model.FetchReport{}, classify(err)
		}
		feedIDs = f.FeedIDs
	}

	report, err := m.fetcher.FetchFeeds(ctx, feedIDs, nil)
	if err != nil {
		return nil, report, classify(err)
	}
	for _, r := range report.Results {
		if r.Error != "" {
			m.logger.Warn("refresh failed for feed", "user", userID, "feed", r.FeedID, "err", r.Error)
		}
	}

	entries, err := m.UnreadInFolder(ctx, userID, folder)
	return entries, report, err
}
