package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/odysseus0/sharedfeed/internal/model"
)

type EntryListOptions = model.EntryListOptions

// UnreadInFeed returns the user's unread entries of one subscribed feed.
func (s *Store) UnreadInFeed(ctx context.Context, userID, feedID int64) ([]Entry, error) {
	return s.ListEntries(ctx, userID, EntryListOptions{FeedID: feedID, Status: model.StateUnread})
}

// UnreadInFolder returns the user's unread entries across a folder they own.
func (s *Store) UnreadInFolder(ctx context.Context, userID, folderID int64) ([]Entry, error) {
	return s.ListEntries(ctx, userID, EntryListOptions{FolderID: folderID, Status: model.StateUnread})
}

// UnreadAll returns the user's unread entries across every subscription.
func (s *Store) UnreadAll(ctx context.Context, userID int64) ([]Entry, error) {
	return s.ListEntries(ctx, userID, EntryListOptions{Status: model.StateUnread})
}

// ListEntries lists entries the user holds a state for, newest first.
// FeedID and FolderID narrow the set and are checked against the user's
// subscriptions and folders.
func (s *Store) ListEntries(ctx context.Context, userID int64, opts EntryListOptions) ([]Entry, error) {
	status := strings.ToLower(strings.TrimSpace(opts.Status))
	if status == "" {
		status = model.StateUnread
	}

	where := []string{"es.user_id = ?"}
	args := []any{userID}
	switch status {
	case model.StateUnread:
		where = append(where, "es.read = 0")
	case model.StateRead:
		where = append(where, "es.read = 1")
	case "all":
	default:
		return nil, fmt.Errorf("%w: invalid status %q (expected unread|read|all)", ErrInvalidInput, opts.Status)
	}

	if opts.FeedID > 0 {
		if err := s.requireSubscription(ctx, userID, opts.FeedID); err != nil {
			return nil, err
		}
		where = append(where, "e.feed_id = ?")
		args = append(args, opts.FeedID)
	}
	if opts.FolderID > 0 {
		if _, err := s.GetFolder(ctx, userID, opts.FolderID); err != nil {
			return nil, err
		}
		where = append(where, "e.feed_id IN (SELECT feed_id FROM folder_feeds WHERE folder_id = ?)")
		args = append(args, opts.FolderID)
	}

	query := `SELECT ` + entrySelectColumns + `
		FROM entry_states es
		JOIN entries e ON e.id = es.entry_id
		JOIN feeds f ON f.id = e.feed_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY e.published_at DESC, e.id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

func (s *Store) Stats(ctx context.Context, userID int64) (Stats, error) {
	var stats Stats
	err := s.q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM subscriptions WHERE user_id = ?),
			(SELECT COUNT(*) FROM folders WHERE user_id = ?),
			(SELECT COUNT(*) FROM entry_states WHERE user_id = ? AND read = 0),
			(SELECT COUNT(*) FROM entry_states WHERE user_id = ?)
	`, userID, userID, userID, userID).Scan(&stats.Feeds, &stats.Folders, &stats.Unread, &stats.Total)
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}
