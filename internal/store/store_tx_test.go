package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestInTxRollsBackOnExecFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	boom := errors.New("disk I/O error")
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM subscriptions WHERE user_id = ? AND feed_id = ?`)).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT folder_id FROM folder_feeds WHERE user_id = ? AND feed_id = ?`)).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"folder_id"}))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM subscriptions WHERE user_id = ? AND feed_id = ?`)).
		WithArgs(int64(1), int64(2)).
		WillReturnError(boom)
	mock.ExpectRollback()

	s := NewStore(db)
	if _, err := s.Unsubscribe(context.Background(), 1, 2); !errors.Is(err, boom) {
		t.Fatalf("Unsubscribe err=%v, want %v", err, boom)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInTxBeginFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	s := NewStore(db)
	if _, err := s.ChangeState(context.Background(), 1, 1, true, ScopeFeed); err == nil {
		t.Fatalf("expected begin failure to surface")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUnsubscribeCascadeIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := mustCreateUser(t, s, "ada@example.com")
	feed := mustSubscribeNew(t, s, user.ID, "https://example.com/solo.xml")
	mustCreateEntries(t, s, feed.ID, "e", 3)
	change, err := s.AddFeedToNewFolder(ctx, user.ID, feed.ID, "Only")
	if err != nil {
		t.Fatalf("folder: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE TRIGGER block_feed_delete BEFORE DELETE ON feeds
		BEGIN SELECT RAISE(ABORT, 'boom'); END;
	`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	if _, err := s.Unsubscribe(ctx, user.ID, feed.ID); err == nil {
		t.Fatalf("expected unsubscribe to fail on feed delete")
	}

	ok, err := s.IsSubscribed(ctx, user.ID, feed.ID)
	if err != nil || !ok {
		t.Fatalf("subscription should survive: ok=%v err=%v", ok, err)
	}
	if n := mustCountStates(t, s, user.ID, feed.ID); n != 3 {
		t.Fatalf("states = %d, want 3", n)
	}
	folder, err := s.GetFolder(ctx, user.ID, change.NewFolder.ID)
	if err != nil {
		t.Fatalf("folder should survive: %v", err)
	}
	if len(folder.FeedIDs) != 1 || folder.FeedIDs[0] != feed.ID {
		t.Fatalf("folder membership changed: %+v", folder)
	}
}

func TestCreateEntryFanOutIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := mustCreateUser(t, s, "ada@example.com")
	feed := mustSubscribeNew(t, s, user.ID, "https://example.com/feed.xml")

	if _, err := s.db.ExecContext(ctx, `
		CREATE TRIGGER block_state_insert BEFORE INSERT ON entry_states
		BEGIN SELECT RAISE(ABORT, 'boom'); END;
	`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	if _, err := s.CreateEntry(ctx, UpsertEntryInput{FeedID: feed.ID, GUID: "g", PublishedAt: time.Now()}); err == nil {
		t.Fatalf("expected fan-out failure")
	}
	var entries int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE feed_id = ?`, feed.ID).Scan(&entries); err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if entries != 0 {
		t.Fatalf("entry committed without its states")
	}
}
