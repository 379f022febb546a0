package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// GetFolder returns a folder owned by the user, with its feed ids.
func (s *Store) GetFolder(ctx context.Context, userID, folderID int64) (Folder, error) {
	row := s.q.QueryRowContext(ctx, `SELECT id, user_id, title, created_at FROM folders WHERE id = ? AND user_id = ?`, folderID, userID)
	folder, err := scanFolder(row)
	if err != nil {
		return Folder{}, wrapNotFound(fmt.Sprintf("folder %d", folderID), err)
	}
	if folder.FeedIDs, err = s.folderFeedIDs(ctx, folder.ID); err != nil {
		return Folder{}, err
	}
	return folder, nil
}

func (s *Store) ListFolders(ctx context.Context, userID int64) ([]Folder, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id, user_id, title, created_at FROM folders WHERE user_id = ? ORDER BY title COLLATE NOCASE, id`, userID)
	if err != nil {
		return nil, err
	}
	folders := make([]Folder, 0)
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range folders {
		if folders[i].FeedIDs, err = s.folderFeedIDs(ctx, folders[i].ID); err != nil {
			return nil, err
		}
	}
	return folders, nil
}

func (s *Store) FindFolderByTitle(ctx context.Context, userID int64, title string) (Folder, error) {
	row := s.q.QueryRowContext(ctx, `SELECT id, user_id, title, created_at FROM folders WHERE user_id = ? AND title = ?`, userID, title)
	folder, err := scanFolder(row)
	if err != nil {
		return Folder{}, wrapNotFound(fmt.Sprintf("folder %q", title), err)
	}
	if folder.FeedIDs, err = s.folderFeedIDs(ctx, folder.ID); err != nil {
		return Folder{}, err
	}
	return folder, nil
}

// FolderOfFeed returns the user's folder holding the feed, or nil.
func (s *Store) FolderOfFeed(ctx context.Context, userID, feedID int64) (*Folder, error) {
	var folderID int64
	err := s.q.QueryRowContext(ctx, `SELECT folder_id FROM folder_feeds WHERE user_id = ? AND feed_id = ?`, userID, feedID).Scan(&folderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	folder, err := s.GetFolder(ctx, userID, folderID)
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// AddFeedToFolder moves a subscribed feed into one of the user's folders. A
// previous folder that loses its last feed is deleted.
func (s *Store) AddFeedToFolder(ctx context.Context, userID, feedID, folderID int64) (FolderChange, error) {
	var change FolderChange
	err := s.InTx(ctx, func(tx *Store) error {
		feed, err := tx.GetSubscribedFeed(ctx, userID, feedID)
		if err != nil {
			return err
		}
		target, err := tx.GetFolder(ctx, userID, folderID)
		if err != nil {
			return err
		}
		change.Feed = feed

		current, err := tx.FolderOfFeed(ctx, userID, feedID)
		if err != nil {
			return err
		}
		if current != nil && current.ID != target.ID {
			change.OldFolder = current
			if change.OldFolderDeleted, err = tx.detachFromFolder(ctx, current.ID, feedID); err != nil {
				return err
			}
		}
		if current == nil || current.ID != target.ID {
			if _, err := tx.q.ExecContext(ctx, `INSERT INTO folder_feeds(folder_id, feed_id, user_id) VALUES (?, ?, ?)`, target.ID, feedID, userID); err != nil {
				return err
			}
		}

		if change.NewFolder, err = tx.GetFolder(ctx, userID, target.ID); err != nil {
			return err
		}
		fid := target.ID
		change.Feed.FolderID = &fid
		return nil
	})
	if err != nil {
		return FolderChange{}, err
	}
	return change, nil
}

// AddFeedToNewFolder creates a folder and moves the feed into it. The folder
// is never committed without the feed.
func (s *Store) AddFeedToNewFolder(ctx context.Context, userID, feedID int64, title string) (FolderChange, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return FolderChange{}, fmt.Errorf("%w: folder title is required", ErrInvalidInput)
	}

	var change FolderChange
	err := s.InTx(ctx, func(tx *Store) error {
		if err := tx.requireSubscription(ctx, userID, feedID); err != nil {
			return err
		}
		_, err := tx.FindFolderByTitle(ctx, userID, title)
		switch {
		case err == nil:
			return fmt.Errorf("folder %q: %w", title, ErrFolderAlreadyExists)
		case !errors.Is(err, ErrNotFound):
			return err
		}

		res, err := tx.q.ExecContext(ctx, `INSERT INTO folders(user_id, title) VALUES (?, ?)`, userID, title)
		if err != nil {
			return err
		}
		folderID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		change, err = tx.AddFeedToFolder(ctx, userID, feedID, folderID)
		return err
	})
	if err != nil {
		return FolderChange{}, err
	}
	return change, nil
}

// RemoveFeedFromFolder reports whether the feed's folder still exists after
// the removal. A feed outside any folder is left alone and reports true.
func (s *Store) RemoveFeedFromFolder(ctx context.Context, userID, feedID int64) (bool, error) {
	stillExists := true
	err := s.InTx(ctx, func(tx *Store) error {
		if err := tx.requireSubscription(ctx, userID, feedID); err != nil {
			return err
		}
		folder, err := tx.FolderOfFeed(ctx, userID, feedID)
		if err != nil || folder == nil {
			return err
		}
		deleted, err := tx.detachFromFolder(ctx, folder.ID, feedID)
		if err != nil {
			return err
		}
		stillExists = !deleted
		return nil
	})
	if err != nil {
		return false, err
	}
	return stillExists, nil
}

// detachFromFolder removes the feed from the folder and deletes the folder if
// it has no feeds left. Must run inside a transaction.
func (s *Store) detachFromFolder(ctx context.Context, folderID, feedID int64) (folderDeleted bool, err error) {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM folder_feeds WHERE folder_id = ? AND feed_id = ?`, folderID, feedID); err != nil {
		return false, err
	}
	var remaining int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM folder_feeds WHERE folder_id = ?`, folderID).Scan(&remaining); err != nil {
		return false, err
	}
	if remaining > 0 {
		return false, nil
	}
	if _, err := s.q.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, folderID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) folderFeedIDs(ctx context.Context, folderID int64) ([]int64, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT feed_id FROM folder_feeds WHERE folder_id = ? ORDER BY feed_id`, folderID)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

func scanFolder(scanner rowScanner) (Folder, error) {
	var f Folder
	var createdAt string
	if err := scanner.Scan(&f.ID, &f.UserID, &f.Title, &createdAt); err != nil {
		return Folder{}, err
	}
	if t, err := parseDBTime(createdAt); err == nil {
		f.CreatedAt = t
	}
	return f, nil
}
