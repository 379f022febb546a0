package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ChangeState sets the user's read flag on an entry and, for the range
// scopes, on every entry at or before it in publication order: published
// earlier, or published at the same instant with a lower or equal id.
// It returns how many states changed.
//
// With ScopeSingle a missing state is not an error and changes nothing.
func (s *Store) ChangeState(ctx context.Context, userID, entryID int64, read bool, scope ChangeScope) (int, error) {
	switch scope {
	case ScopeSingle, ScopeFeed, ScopeFolder, ScopeAll:
	default:
		return 0, fmt.Errorf("%w: invalid scope %q (expected single|feed|folder|all)", ErrInvalidInput, scope)
	}

	changed := 0
	err := s.InTx(ctx, func(tx *Store) error {
		var err error
		var stateIDs []int64
		if scope == ScopeSingle {
			stateIDs, err = tx.singleStateIDs(ctx, userID, entryID, read)
		} else {
			stateIDs, err = tx.rangeStateIDs(ctx, userID, entryID, read, scope)
		}
		if err != nil {
			return err
		}

		var readAt any
		if read {
			readAt = formatDBTime(time.Now())
		}
		for _, id := range stateIDs {
			if _, err := tx.q.ExecContext(ctx, `UPDATE entry_states SET read = ?, read_at = ? WHERE id = ?`, read, readAt, id); err != nil {
				return fmt.Errorf("update entry state %d: %w", id, err)
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func (s *Store) singleStateIDs(ctx context.Context, userID, entryID int64, read bool) ([]int64, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id FROM entry_states WHERE user_id = ? AND entry_id = ? AND read <> ?`, userID, entryID, read)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

func (s *Store) rangeStateIDs(ctx context.Context, userID, entryID int64, read bool, scope ChangeScope) ([]int64, error) {
	var feedID int64
	var published string
	err := s.q.QueryRowContext(ctx, `SELECT feed_id, published_at FROM entries WHERE id = ?`, entryID).Scan(&feedID, &published)
	if err != nil {
		return nil, wrapNotFound(fmt.Sprintf("entry %d", entryID), err)
	}
	var held int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM entry_states WHERE user_id = ? AND entry_id = ?`, userID, entryID).Scan(&held); err != nil {
		return nil, err
	}
	if held == 0 {
		return nil, fmt.Errorf("user %d, entry %d: %w", userID, entryID, ErrNotSubscribed)
	}

	query := `
		SELECT es.id
		FROM entry_states es
		JOIN entries e ON e.id = es.entry_id
		WHERE es.user_id = ?
		  AND es.read <> ?
		  AND (e.published_at < ? OR (e.published_at = ? AND e.id <= ?))
	`
	args := []any{userID, read, published, published, entryID}

	switch scope {
	case ScopeFeed:
		query += ` AND e.feed_id = ?`
		args = append(args, feedID)
	case ScopeFolder:
		folder, err := s.FolderOfFeed(ctx, userID, feedID)
		if err != nil {
			return nil, err
		}
		if folder == nil {
			return nil, fmt.Errorf("feed %d is not in a folder: %w", feedID, ErrNotFound)
		}
		query += ` AND e.feed_id IN (SELECT feed_id FROM folder_feeds WHERE folder_id = ?)`
		args = append(args, folder.ID)
	case ScopeAll:
	}
	query += ` ORDER BY e.published_at, e.id`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

// ReadBy reports the user's read flag for an entry.
func (s *Store) ReadBy(ctx context.Context, userID, entryID int64) (bool, error) {
	var read bool
	err := s.q.QueryRowContext(ctx, `SELECT read FROM entry_states WHERE user_id = ? AND entry_id = ?`, userID, entryID).Scan(&read)
	if err == nil {
		return read, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	if _, err := s.GetEntry(ctx, entryID); err != nil {
		return false, err
	}
	return false, fmt.Errorf("user %d, entry %d: %w", userID, entryID, ErrNotSubscribed)
}

// CountStates returns how many entry states the user holds for a feed.
func (s *Store) CountStates(ctx context.Context, userID, feedID int64) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM entry_states es
		JOIN entries e ON e.id = es.entry_id
		WHERE es.user_id = ? AND e.feed_id = ?
	`, userID, feedID).Scan(&n)
	return n, err
}
