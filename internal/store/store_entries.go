package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CreateEntry persists a new entry and fans out an unread state to every
// current subscriber of its feed. A guid that is already stored or was
// pruned earlier is rejected.
func (s *Store) CreateEntry(ctx context.Context, in UpsertEntryInput) (int64, error) {
	if err := validateEntryInput(in); err != nil {
		return 0, err
	}
	var entryID int64
	err := s.InTx(ctx, func(tx *Store) error {
		if _, err := tx.GetFeedByID(ctx, in.FeedID); err != nil {
			return err
		}
		existingID, err := tx.entryIDByGUID(ctx, in.FeedID, in.GUID)
		if err != nil {
			return err
		}
		if existingID != 0 {
			return fmt.Errorf("feed %d guid %q: %w", in.FeedID, in.GUID, ErrDuplicateEntry)
		}
		entryID, err = tx.insertEntry(ctx, in)
		return err
	})
	if err != nil {
		return 0, err
	}
	return entryID, nil
}

// UpsertEntry stores an entry seen during a fetch. New entries are inserted
// and fanned out; known entries have their content refreshed and keep their
// per-user states. Tombstoned guids return ErrEntryDeleted.
func (s *Store) UpsertEntry(ctx context.Context, in UpsertEntryInput) (entryID int64, inserted bool, err error) {
	if err := validateEntryInput(in); err != nil {
		return 0, false, err
	}
	err = s.InTx(ctx, func(tx *Store) error {
		existingID, err := tx.entryIDByGUID(ctx, in.FeedID, in.GUID)
		if err != nil {
			return err
		}
		if existingID == 0 {
			entryID, err = tx.insertEntry(ctx, in)
			inserted = err == nil
			return err
		}

		entryID = existingID
		_, err = tx.q.ExecContext(ctx, `
			UPDATE entries
			SET url = ?, title = ?, author = ?, content = ?, summary = ?, fetched_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, in.URL, in.Title, in.Author, in.Content, in.Summary, existingID)
		return err
	})
	if err != nil {
		return 0, false, err
	}
	return entryID, inserted, nil
}

func validateEntryInput(in UpsertEntryInput) error {
	if in.FeedID <= 0 {
		return fmt.Errorf("%w: entry feed id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.GUID) == "" {
		return fmt.Errorf("%w: entry guid is required", ErrInvalidInput)
	}
	return nil
}

func (s *Store) entryIDByGUID(ctx context.Context, feedID int64, guid string) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx, `SELECT id FROM entries WHERE feed_id = ? AND guid = ?`, feedID, guid).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

func (s *Store) insertEntry(ctx context.Context, in UpsertEntryInput) (int64, error) {
	deleted, err := s.IsEntryDeleted(ctx, in.FeedID, in.GUID)
	if err != nil {
		return 0, err
	}
	if deleted {
		return 0, fmt.Errorf("feed %d guid %q: %w", in.FeedID, in.GUID, ErrEntryDeleted)
	}

	published := in.PublishedAt
	if published.IsZero() {
		published = time.Now()
	}
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO entries(feed_id, guid, url, title, author, content, summary, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, in.FeedID, in.GUID, in.URL, in.Title, in.Author, in.Content, in.Summary, formatDBTime(published))
	if err != nil {
		return 0, err
	}
	entryID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := s.FanOutEntry(ctx, entryID); err != nil {
		return 0, err
	}
	return entryID, nil
}

// FanOutEntry creates an unread state for every subscriber of the entry's
// feed that does not have one yet. It is safe to call repeatedly.
func (s *Store) FanOutEntry(ctx context.Context, entryID int64) (int64, error) {
	res, err := s.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO entry_states(user_id, entry_id, read)
		SELECT sub.user_id, e.id, 0
		FROM entries e
		JOIN subscriptions sub ON sub.feed_id = e.feed_id
		WHERE e.id = ?
	`, entryID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) IsEntryDeleted(ctx context.Context, feedID int64, guid string) (bool, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM deleted_entries WHERE feed_id = ? AND guid = ?`, feedID, guid).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetEntry loads an entry without any user's read flag.
func (s *Store) GetEntry(ctx context.Context, id int64) (Entry, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+entrySelectColumns+`
		FROM entries e
		JOIN feeds f ON f.id = e.feed_id
		LEFT JOIN entry_states es ON es.entry_id = e.id AND es.user_id = 0
		WHERE e.id = ?
	`, id)
	entry, err := scanEntry(row)
	if err != nil {
		return Entry{}, wrapNotFound(fmt.Sprintf("entry %d", id), err)
	}
	return entry, nil
}

// GetUserEntry loads an entry with the user's read flag. The user must hold
// a state for it.
func (s *Store) GetUserEntry(ctx context.Context, userID, entryID int64) (Entry, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+entrySelectColumns+`
		FROM entries e
		JOIN feeds f ON f.id = e.feed_id
		JOIN entry_states es ON es.entry_id = e.id AND es.user_id = ?
		WHERE e.id = ?
	`, userID, entryID)
	entry, err := scanEntry(row)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Entry{}, err
	}
	if _, err := s.GetEntry(ctx, entryID); err != nil {
		return Entry{}, err
	}
	return Entry{}, fmt.Errorf("user %d, entry %d: %w", userID, entryID, ErrNotSubscribed)
}

const pruneCandidates = `
	SELECT id FROM entries
	WHERE feed_id = ?
	  AND (
		published_at < ?
		OR id NOT IN (
			SELECT id FROM entries WHERE feed_id = ?
			ORDER BY published_at DESC, id DESC
			LIMIT ?
		)
	  )
`

// PruneEntries removes entries of a feed published before olderThan and any
// beyond the newest maxEntries. A tombstone is written for each removed guid
// so later fetches do not bring it back. Zero values disable either limit.
func (s *Store) PruneEntries(ctx context.Context, feedID int64, olderThan time.Time, maxEntries int) (int64, error) {
	cutoff := ""
	if !olderThan.IsZero() {
		cutoff = formatDBTime(olderThan)
	}
	limit := maxEntries
	if limit <= 0 {
		limit = -1
	}
	args := []any{feedID, cutoff, feedID, limit}

	var removed int64
	err := s.InTx(ctx, func(tx *Store) error {
		if _, err := tx.q.ExecContext(ctx, `
			INSERT OR IGNORE INTO deleted_entries(feed_id, guid)
			SELECT feed_id, guid FROM entries WHERE id IN (`+pruneCandidates+`)
		`, args...); err != nil {
			return err
		}
		res, err := tx.q.ExecContext(ctx, `DELETE FROM entries WHERE id IN (`+pruneCandidates+`)`, args...)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// PruneAllFeeds applies PruneEntries to every stored feed.
func (s *Store) PruneAllFeeds(ctx context.Context, olderThan time.Time, maxEntries int) (int64, error) {
	feeds, err := s.ListFeedsForFetch(ctx, nil)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, feed := range feeds {
		n, err := s.PruneEntries(ctx, feed.ID, olderThan, maxEntries)
		if err != nil {
			return total, fmt.Errorf("prune feed %d: %w", feed.ID, err)
		}
		total += n
	}
	return total, nil
}

// SearchEntries runs a full-text query over the entries the user holds a
// state for.
func (s *Store) SearchEntries(ctx context.Context, userID int64, opts SearchOptions) ([]Entry, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", ErrInvalidInput)
	}
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT `+entrySelectColumns+`
		FROM entries_fts
		JOIN entries e ON e.id = entries_fts.rowid
		JOIN feeds f ON f.id = e.feed_id
		JOIN entry_states es ON es.entry_id = e.id AND es.user_id = ?
		WHERE entries_fts MATCH ?
		ORDER BY bm25(entries_fts), e.published_at DESC, e.id DESC
		LIMIT ?
	`, userID, opts.Query, opts.Limit)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}
