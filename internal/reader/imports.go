package reader

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/odysseus0/sharedfeed/internal/fetch"
	"github.com/odysseus0/sharedfeed/internal/model"
	"github.com/odysseus0/sharedfeed/internal/opml"
	"github.com/odysseus0/sharedfeed/internal/store"
)

type ImportResult struct {
	InputURL      string `json:"input_url"`
	NormalizedURL string `json:"normalized_url,omitempty"`
	Folder        string `json:"folder,omitempty"`
	FeedID        int64  `json:"feed_id,omitempty"`
	Added         bool   `json:"added"`
	Error         string `json:"error,omitempty"`
}

type ImportReport struct {
	File     string         `json:"file"`
	Total    int            `json:"total"`
	Added    int            `json:"added"`
	Existing int            `json:"existing"`
	Failed   int            `json:"failed"`
	Results  []ImportResult `json:"results"`
}

// ImportSubscriptions subscribes the user to every feed of an OPML file.
// Feeds nested under a titled outline go into the folder with that title.
// New feeds are registered without fetching; the next refresh picks them up.
// Progress is recorded in the user's data import record.
func (m *Manager) ImportSubscriptions(ctx context.Context, userID int64, path string) (ImportReport, error) {
	status, err := m.store.GetDataImport(ctx, userID)
	if err != nil {
		return ImportReport{}, classify(err)
	}

	subs, err := opml.ReadOPML(path)
	if err != nil {
		status.Status = model.ImportError
		status.ShowAlert = true
		if saveErr := m.store.SaveDataImport(ctx, status); saveErr != nil {
			m.logger.Error("failed to record import failure", "user", userID, "err", saveErr)
		}
		return ImportReport{}, fmt.Errorf("%w: read opml %s: %v", store.ErrInvalidInput, path, err)
	}

	status.Status = model.ImportRunning
	status.TotalFeeds = len(subs)
	status.ProcessedFeeds = 0
	status.ShowAlert = false
	if err := m.store.SaveDataImport(ctx, status); err != nil {
		return ImportReport{}, classify(err)
	}
	m.logger.Info("import started", "user", userID, "file", path, "feeds", len(subs))

	report := ImportReport{File: path, Total: len(subs), Results: make([]ImportResult, 0, len(subs))}
	for _, sub := range subs {
		item := m.importOne(ctx, userID, sub)
		switch {
		case item.Error != "":
			report.Failed++
		case item.Added:
			report.Added++
		default:
			report.Existing++
		}
		report.Results = append(report.Results, item)

		status.ProcessedFeeds++
		if err := m.store.SaveDataImport(ctx, status); err != nil {
			return report, classify(err)
		}
	}

	status.Status = model.ImportSuccess
	status.ShowAlert = true
	if err := m.store.SaveDataImport(ctx, status); err != nil {
		return report, classify(err)
	}
	m.logger.Info("import finished", "user", userID, "added", report.Added, "existing", report.Existing, "failed", report.Failed)
	return report, nil
}

func (m *Manager) importOne(ctx context.Context, userID int64, sub opml.Subscription) ImportResult {
	item := ImportResult{InputURL: sub.URL, Folder: sub.Folder}
	normalized, err := fetch.NormalizeURL(sub.URL)
	if err != nil {
		item.Error = err.Error()
		return item
	}
	item.NormalizedURL = normalized

	feed, created, err := m.store.CreateFeedSubscription(ctx, userID, normalized)
	switch {
	case errors.Is(err, store.ErrAlreadySubscribed):
		existing, findErr := m.store.FindFeedByURL(ctx, normalized)
		if findErr != nil {
			item.Error = findErr.Error()
			return item
		}
		feed = existing
	case err != nil:
		item.Error = err.Error()
		return item
	}
	item.FeedID = feed.ID
	item.Added = created

	if sub.Folder == "" {
		return item
	}
	if err := m.placeInFolder(ctx, userID, feed.ID, sub.Folder); err != nil {
		item.Error = fmt.Sprintf("folder %q: %v", sub.Folder, err)
	}
	return item
}

func (m *Manager) placeInFolder(ctx context.Context, userID, feedID int64, title string) error {
	folder, err := m.store.FindFolderByTitle(ctx, userID, title)
	switch {
	case err == nil:
		_, err = m.store.AddFeedToFolder(ctx, userID, feedID, folder.ID)
		return err
	case errors.Is(err, store.ErrNotFound):
		_, err = m.store.AddFeedToNewFolder(ctx, userID, feedID, title)
		return err
	default:
		return err
	}
}

func (m *Manager) ImportStatus(ctx context.Context, userID int64) (model.DataImport, error) {
	d, err := m.store.GetDataImport(ctx, userID)
	return d, classify(err)
}

// AcknowledgeImport hides the finished-import notice.
func (m *Manager) AcknowledgeImport(ctx context.Context, userID int64) error {
	d, err := m.store.GetDataImport(ctx, userID)
	if err != nil {
		return classify(err)
	}
	if !d.ShowAlert {
		return nil
	}
	d.ShowAlert = false
	return classify(m.store.SaveDataImport(ctx, d))
}

// ExportSubscriptions writes the user's subscriptions as OPML, one outline
// per folder.
func (m *Manager) ExportSubscriptions(ctx context.Context, userID int64, w io.Writer) error {
	user, err := m.store.GetUser(ctx, userID)
	if err != nil {
		return classify(err)
	}
	feeds, err := m.store.ListSubscribedFeeds(ctx, userID)
	if err != nil {
		return classify(err)
	}
	folders, err := m.store.ListFolders(ctx, userID)
	if err != nil {
		return classify(err)
	}
	return opml.WriteOPML(w, "sharedfeed export for "+user.Email, feeds, folders)
}
