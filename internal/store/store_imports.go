package store

import (
	"context"
	"time"

	"github.com/odysseus0/sharedfeed/internal/model"
)

// GetDataImport returns the user's import progress record, creating an idle
// one on first access.
func (s *Store) GetDataImport(ctx context.Context, userID int64) (DataImport, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return DataImport{}, err
	}
	if _, err := s.q.ExecContext(ctx, `INSERT OR IGNORE INTO data_imports(user_id, status) VALUES (?, ?)`, userID, string(model.ImportNone)); err != nil {
		return DataImport{}, err
	}

	var d DataImport
	var status, updatedAt string
	err := s.q.QueryRowContext(ctx, `
		SELECT user_id, status, total_feeds, processed_feeds, show_alert, updated_at
		FROM data_imports WHERE user_id = ?
	`, userID).Scan(&d.UserID, &status, &d.TotalFeeds, &d.ProcessedFeeds, &d.ShowAlert, &updatedAt)
	if err != nil {
		return DataImport{}, wrapNotFound("data import", err)
	}
	d.Status = model.DataImportStatus(status)
	if t, err := parseDBTime(updatedAt); err == nil {
		d.UpdatedAt = t
	}
	return d, nil
}

func (s *Store) SaveDataImport(ctx context.Context, d DataImport) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO data_imports(user_id, status, total_feeds, processed_feeds, show_alert, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			status = excluded.status,
			total_feeds = excluded.total_feeds,
			processed_feeds = excluded.processed_feeds,
			show_alert = excluded.show_alert,
			updated_at = excluded.updated_at
	`, d.UserID, string(d.Status), d.TotalFeeds, d.ProcessedFeeds, d.ShowAlert, formatDBTime(time.Now()))
	return err
}
