package store

import (
	"context"
	"database/sql"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db   *sql.DB
	q    querier
	inTx bool
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// InTx runs fn against a copy of the store bound to a single transaction.
// The transaction commits only if fn returns nil. Calls made on an already
// tx-bound store join the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&Store{db: s.db, q: tx, inTx: true}); err != nil {
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

const feedBaseColumns = `f.id, f.url, f.site_url, f.title, f.description, f.last_fetched_at, f.etag, f.last_modified, f.last_error, f.error_count, f.created_at`

func scanFeedRow(scanner rowScanner) (Feed, error) {
	var f Feed
	var siteURL, title, desc, lastFetched, etag, lastMod, lastErr sql.NullString
	var createdAt string
	if err := scanner.Scan(
		&f.ID,
		&f.URL,
		&siteURL,
		&title,
		&desc,
		&lastFetched,
		&etag,
		&lastMod,
		&lastErr,
		&f.ErrorCount,
		&createdAt,
	); err != nil {
		return Feed{}, err
	}
	applyFeedColumns(&f, siteURL, title, desc, lastFetched, etag, lastMod, lastErr, createdAt)
	return f, nil
}

func scanSubscribedFeedRow(scanner rowScanner) (Feed, error) {
	var f Feed
	var siteURL, title, desc, lastFetched, etag, lastMod, lastErr sql.NullString
	var createdAt string
	var folderID sql.NullInt64
	if err := scanner.Scan(
		&f.ID,
		&f.URL,
		&siteURL,
		&title,
		&desc,
		&lastFetched,
		&etag,
		&lastMod,
		&lastErr,
		&f.ErrorCount,
		&createdAt,
		&folderID,
		&f.UnreadCount,
		&f.TotalCount,
	); err != nil {
		return Feed{}, err
	}
	applyFeedColumns(&f, siteURL, title, desc, lastFetched, etag, lastMod, lastErr, createdAt)
	if folderID.Valid {
		id := folderID.Int64
		f.FolderID = &id
	}
	return f, nil
}

func applyFeedColumns(f *Feed, siteURL, title, desc, lastFetched, etag, lastMod, lastErr sql.NullString, createdAt string) {
	f.SiteURL = siteURL.String
	f.Title = title.String
	f.Description = desc.String
	f.ETag = etag.String
	f.LastModified = lastMod.String
	f.LastError = lastErr.String
	if t, err := parseDBTime(createdAt); err == nil {
		f.CreatedAt = t
	}
	if lastFetched.Valid {
		if t, err := parseDBTime(lastFetched.String); err == nil {
			f.LastFetchedAt = &t
		}
	}
}

const entrySelectColumns = `
	e.id, e.feed_id, COALESCE(NULLIF(f.title, ''), f.url), e.guid,
	e.url, e.title, e.author, e.content, e.summary,
	e.published_at, e.fetched_at, COALESCE(es.read, 0)
`

func scanEntry(scanner rowScanner) (Entry, error) {
	var e Entry
	var feedTitle sql.NullString
	var url, title, author, content, summary sql.NullString
	var publishedAt, fetchedAt string
	if err := scanner.Scan(
		&e.ID,
		&e.FeedID,
		&feedTitle,
		&e.GUID,
		&url,
		&title,
		&author,
		&content,
		&summary,
		&publishedAt,
		&fetchedAt,
		&e.Read,
	); err != nil {
		return Entry{}, err
	}
	e.FeedTitle = feedTitle.String
	e.URL = url.String
	e.Title = title.String
	e.Author = author.String
	e.Content = content.String
	e.Summary = summary.String
	if t, err := parseDBTime(publishedAt); err == nil {
		e.PublishedAt = t
	}
	if t, err := parseDBTime(fetchedAt); err == nil {
		e.FetchedAt = t
	}
	return e, nil
}

func collectEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func collectIDs(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
