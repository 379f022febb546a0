package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

func (s *Store) IsSubscribed(ctx context.Context, userID, feedID int64) (bool, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscriptions WHERE user_id = ? AND feed_id = ?`, userID, feedID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) requireSubscription(ctx context.Context, userID, feedID int64) error {
	ok, err := s.IsSubscribed(ctx, userID, feedID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %d, feed %d: %w", userID, feedID, ErrNotSubscribed)
	}
	return nil
}

// SubscribeExisting subscribes the user to a feed already in the store and
// marks every existing entry of the feed unread for that user.
func (s *Store) SubscribeExisting(ctx context.Context, userID, feedID int64) (Feed, error) {
	var feed Feed
	err := s.InTx(ctx, func(tx *Store) error {
		var err error
		if feed, err = tx.GetFeedByID(ctx, feedID); err != nil {
			return err
		}
		ok, err := tx.IsSubscribed(ctx, userID, feedID)
		if err != nil {
			return err
		}
		if ok {
			return fmt.Errorf("user %d, feed %d: %w", userID, feedID, ErrAlreadySubscribed)
		}
		return tx.addSubscription(ctx, userID, feedID)
	})
	if err != nil {
		return Feed{}, err
	}
	return feed, nil
}

// CreateFeedSubscription stores a new feed record with the user as its first
// subscriber. If a feed with a matching URL appeared in the meantime, the user
// is subscribed to it instead and created is false.
func (s *Store) CreateFeedSubscription(ctx context.Context, userID int64, url string) (feed Feed, created bool, err error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Feed{}, false, fmt.Errorf("%w: feed url is required", ErrInvalidInput)
	}
	err = s.InTx(ctx, func(tx *Store) error {
		existing, err := tx.FindFeedByURL(ctx, url)
		switch {
		case err == nil:
			feed, err = tx.SubscribeExisting(ctx, userID, existing.ID)
			return err
		case !errors.Is(err, ErrNotFound):
			return err
		}

		res, err := tx.q.ExecContext(ctx, `INSERT INTO feeds(url) VALUES (?)`, url)
		if err != nil {
			return err
		}
		feedID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if err := tx.addSubscription(ctx, userID, feedID); err != nil {
			return err
		}
		created = true
		feed, err = tx.GetFeedByID(ctx, feedID)
		return err
	})
	if err != nil {
		return Feed{}, false, err
	}
	return feed, created, nil
}

func (s *Store) addSubscription(ctx context.Context, userID, feedID int64) error {
	if _, err := s.q.ExecContext(ctx, `INSERT INTO subscriptions(user_id, feed_id) VALUES (?, ?)`, userID, feedID); err != nil {
		return err
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO entry_states(user_id, entry_id, read)
		SELECT ?, e.id, 0 FROM entries e WHERE e.feed_id = ?
	`, userID, feedID)
	return err
}

// Unsubscribe removes the feed from the user's folder (deleting the folder if
// it empties), drops the subscription and the user's entry states for the
// feed, and deletes the feed when no subscribers remain.
func (s *Store) Unsubscribe(ctx context.Context, userID, feedID int64) (UnsubscribeResult, error) {
	result := UnsubscribeResult{FeedID: feedID}
	err := s.InTx(ctx, func(tx *Store) error {
		if err := tx.requireSubscription(ctx, userID, feedID); err != nil {
			return err
		}

		folder, err := tx.FolderOfFeed(ctx, userID, feedID)
		if err != nil {
			return err
		}
		if folder != nil {
			deleted, err := tx.detachFromFolder(ctx, folder.ID, feedID)
			if err != nil {
				return err
			}
			if deleted {
				id := folder.ID
				result.DeletedFolderID = &id
			}
		}

		if _, err := tx.q.ExecContext(ctx, `DELETE FROM subscriptions WHERE user_id = ? AND feed_id = ?`, userID, feedID); err != nil {
			return err
		}
		// Ingestion racing with this call may have added a state row; the
		// delete is set-based and tolerates any number of rows.
		if _, err := tx.q.ExecContext(ctx, `
			DELETE FROM entry_states
			WHERE user_id = ? AND entry_id IN (SELECT id FROM entries WHERE feed_id = ?)
		`, userID, feedID); err != nil {
			return err
		}

		remaining, err := tx.CountSubscribers(ctx, feedID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			// Cascades to entries, their states, tombstones and folder links.
			if _, err := tx.q.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, feedID); err != nil {
				return err
			}
			result.FeedDeleted = true
		}
		return nil
	})
	if err != nil {
		return UnsubscribeResult{}, err
	}
	return result, nil
}

// ListSubscribedFeeds returns the user's feeds with the user's unread and
// total counts and the folder each feed sits in.
func (s *Store) ListSubscribedFeeds(ctx context.Context, userID int64) ([]Feed, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT
			`+feedBaseColumns+`,
			ff.folder_id,
			(SELECT COUNT(*) FROM entry_states es JOIN entries e ON e.id = es.entry_id
				WHERE es.user_id = sub.user_id AND e.feed_id = f.id AND es.read = 0) AS unread_count,
			(SELECT COUNT(*) FROM entries e WHERE e.feed_id = f.id) AS total_count
		FROM subscriptions sub
		JOIN feeds f ON f.id = sub.feed_id
		LEFT JOIN folder_feeds ff ON ff.feed_id = f.id AND ff.user_id = sub.user_id
		WHERE sub.user_id = ?
		ORDER BY COALESCE(NULLIF(f.title, ''), f.url) COLLATE NOCASE
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	feeds := make([]Feed, 0)
	for rows.Next() {
		feed, err := scanSubscribedFeedRow(rows)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, feed)
	}
	return feeds, rows.Err()
}

func (s *Store) GetSubscribedFeed(ctx context.Context, userID, feedID int64) (Feed, error) {
	if err := s.requireSubscription(ctx, userID, feedID); err != nil {
		return Feed{}, err
	}
	return s.GetFeedByID(ctx, feedID)
}
