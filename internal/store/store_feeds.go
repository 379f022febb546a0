package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

func (s *Store) GetFeedByID(ctx context.Context, id int64) (Feed, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+feedBaseColumns+` FROM feeds f WHERE f.id = ?`, id)
	feed, err := scanFeedRow(row)
	if err != nil {
		return Feed{}, wrapNotFound("feed", err)
	}
	return feed, nil
}

// FindFeedByURL matches a stored feed URL ignoring a trailing slash on either side.
func (s *Store) FindFeedByURL(ctx context.Context, url string) (Feed, error) {
	bare := strings.TrimRight(strings.TrimSpace(url), "/")
	row := s.q.QueryRowContext(ctx, `
		SELECT `+feedBaseColumns+`
		FROM feeds f
		WHERE f.url = ? OR f.url = ?
		ORDER BY f.id
		LIMIT 1
	`, bare, bare+"/")
	feed, err := scanFeedRow(row)
	if err != nil {
		return Feed{}, wrapNotFound("feed", err)
	}
	return feed, nil
}

func (s *Store) ListFeedsForFetch(ctx context.Context, id *int64) ([]Feed, error) {
	query := `SELECT ` + feedBaseColumns + ` FROM feeds f`
	args := make([]any, 0, 1)
	if id != nil {
		query += ` WHERE f.id = ?`
		args = append(args, *id)
	}
	query += ` ORDER BY f.id`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	feeds := make([]Feed, 0)
	for rows.Next() {
		feed, err := scanFeedRow(rows)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, feed)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if id != nil && len(feeds) == 0 {
		return nil, wrapNotFound("feed", sql.ErrNoRows)
	}
	return feeds, nil
}

func (s *Store) UpdateFeedFetchSuccess(ctx context.Context, feedID int64, title, siteURL, description, etag, lastModified string, fetchedAt time.Time) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE feeds
		SET
			title = CASE WHEN ? <> '' THEN ? ELSE title END,
			site_url = CASE WHEN ? <> '' THEN ? ELSE site_url END,
			description = CASE WHEN ? <> '' THEN ? ELSE description END,
			etag = ?,
			last_modified = ?,
			last_fetched_at = ?,
			last_error = NULL,
			error_count = 0
		WHERE id = ?
	`, title, title, siteURL, siteURL, description, description, etag, lastModified, formatDBTime(fetchedAt), feedID)
	return err
}

func (s *Store) SetFeedError(ctx context.Context, feedID int64, errMsg string) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE feeds
		SET last_error = ?, error_count = error_count + 1
		WHERE id = ?
	`, truncate(errMsg, 500), feedID)
	return err
}

func (s *Store) GetFetchStaleness(ctx context.Context, staleAfter time.Duration) (hasFeeds bool, stale bool, lastFetched *time.Time, err error) {
	var count int
	var maxFetched sql.NullString
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*), MAX(last_fetched_at) FROM feeds`).Scan(&count, &maxFetched); err != nil {
		return false, false, nil, err
	}
	if count == 0 {
		return false, false, nil, nil
	}
	hasFeeds = true
	if !maxFetched.Valid {
		return hasFeeds, true, nil, nil
	}

	t, parseErr := parseDBTime(maxFetched.String)
	if parseErr != nil {
		return hasFeeds, true, nil, nil
	}
	lastFetched = &t
	stale = time.Since(t) > staleAfter
	return hasFeeds, stale, lastFetched, nil
}

func (s *Store) CountSubscribers(ctx context.Context, feedID int64) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscriptions WHERE feed_id = ?`, feedID).Scan(&n)
	return n, err
}
