package reader

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/odysseus0/sharedfeed/internal/model"
	"github.com/odysseus0/sharedfeed/internal/store"
)

func (m *Manager) UnreadInFeed(ctx context.Context, userID, feedID int64) ([]model.Entry, error) {
	entries, err := m.store.UnreadInFeed(ctx, userID, feedID)
	return entries, classify(err)
}

// UnreadInFolder accepts a folder id or "all" for every subscription.
func (m *Manager) UnreadInFolder(ctx context.Context, userID int64, folder string) ([]model.Entry, error) {
	if isAllFolders(folder) {
		entries, err := m.store.UnreadAll(ctx, userID)
		return entries, classify(err)
	}
	folderID, err := ParseFolderID(folder)
	if err != nil {
		return nil, err
	}
	entries, err := m.store.UnreadInFolder(ctx, userID, folderID)
	return entries, classify(err)
}

// ParseFolderID parses a numeric folder id.
func ParseFolderID(v string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: folder must be a positive id or %q", store.ErrInvalidInput, model.FolderAll)
	}
	return id, nil
}

func isAllFolders(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), model.FolderAll)
}

func (m *Manager) ListEntries(ctx context.Context, userID int64, opts model.EntryListOptions) ([]model.Entry, error) {
	entries, err := m.store.ListEntries(ctx, userID, opts)
	return entries, classify(err)
}

func (m *Manager) GetEntry(ctx context.Context, userID, entryID int64) (model.Entry, error) {
	e, err := m.store.GetUserEntry(ctx, userID, entryID)
	return e, classify(err)
}

func (m *Manager) Search(ctx context.Context, userID int64, opts model.SearchOptions) ([]model.Entry, error) {
	entries, err := m.store.SearchEntries(ctx, userID, opts)
	return entries, classify(err)
}

func (m *Manager) Stats(ctx context.Context, userID int64) (model.Stats, error) {
	st, err := m.store.Stats(ctx, userID)
	return st, classify(err)
}
