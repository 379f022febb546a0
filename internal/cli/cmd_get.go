package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odysseus0/sharedfeed/internal/model"
	"github.com/odysseus0/sharedfeed/internal/reader"
)

func newGetCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get feeds, folders, entries, and stats",
	}

	cmd.AddCommand(newGetEntriesCmd(getApp, getOutput))
	cmd.AddCommand(newGetEntryCmd(getApp, getOutput))
	cmd.AddCommand(newGetFeedsCmd(getApp, getOutput))
	cmd.AddCommand(newGetFoldersCmd(getApp, getOutput))
	cmd.AddCommand(newGetStatsCmd(getApp, getOutput))
	cmd.AddCommand(newGetImportStatusCmd(getApp, getOutput))
	return cmd
}

func newGetEntriesCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var status string
	var feedID int64
	var folder string
	var limit int
	var noFetch bool

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, user, err := requireUser(cmd, getApp)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			opts := EntryListOptions{Status: status, FeedID: feedID, Limit: limit}
			if folder = strings.TrimSpace(folder); folder != "" && !strings.EqualFold(folder, model.FolderAll) {
				opts.FolderID, err = reader.ParseFolderID(folder)
				if err != nil {
					return err
				}
			}

			if !noFetch {
				if err := autoFetch(cmd, app); err != nil {
					return err
				}
			}

			entries, err := app.reader.ListEntries(ctx, user.ID, opts)
			if err != nil {
				return fmt.Errorf("list entries: %w", err)
			}

			return app.writeEntries(cmd.OutOrStdout(), getOutput(), entries)
		},
	}

	cmd.Flags().StringVar(&status, "status", "unread", "Entry status: unread, read, all")
	cmd.Flags().Int64Var(&feedID, "feed", 0, "Filter by feed ID")
	cmd.Flags().StringVar(&folder, "folder", "", "Filter by folder ID, or all")
	cmd.Flags().IntVar(&limit, "limit", 50, "Result limit")
	cmd.Flags().BoolVar(&noFetch, "no-fetch", false, "Skip staleness auto-fetch")
	cmd.MarkFlagsMutuallyExclusive("feed", "folder")
	return cmd
}

// autoFetch refreshes every feed when the newest fetch is older than the
// configured staleness window.
func autoFetch(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	errOut := cmd.ErrOrStderr()
	hasFeeds, stale, lastFetched, err := app.store.GetFetchStaleness(ctx, app.cfg.StaleAfter)
	if err != nil {
		return fmt.Errorf("check fetch staleness: %w", err)
	}
	if !hasFeeds || !stale {
		return nil
	}
	fmt.Fprintf(errOut, "Fetching feeds (last fetch: %s)...\n", humanAgo(lastFetched))
	rep, err := app.fetcher.Fetch(ctx, nil)
	if err != nil {
		return fmt.Errorf("fetch feeds: %w", err)
	}
	for _, warning := range rep.Warnings {
		fmt.Fprintf(errOut, "warning: %s\n", warning)
	}
	errCount := 0
	for _, r := range rep.Results {
		if strings.TrimSpace(r.Error) != "" {
			errCount++
		}
	}
	if errCount > 0 {
		fmt.Fprintf(errOut, "Fetch completed with %d error(s). Run `sharedfeed fetch -o wide` for details.\n", errCount)
	}
	return nil
}

func newGetEntryCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry <id>",
		Short: "Get full entry content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, user, err := requireUser(cmd, getApp)
			if err != nil {
				return err
			}
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			entry, err := app.reader.GetEntry(cmd.Context(), user.ID, id)
			if err != nil {
				return fmt.Errorf("get entry: %w", err)
			}

			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, entry)
			}

			url := fallback(entry.URL, "-")
			state := model.StateUnread
			if entry.Read {
				state = model.StateRead
			}
			fmt.Fprintf(out, "# %s\n", displayEntryTitle(entry))
			fmt.Fprintf(out, "source: %s | date: %s | %s | url: %s\n\n", entry.FeedTitle, formatDate(entry.PublishedAt), state, url)

			content := strings.TrimSpace(app.renderer.HTMLToMarkdown(entry.Content))
			if content == "" {
				content = strings.TrimSpace(app.renderer.HTMLToMarkdown(entry.Summary))
			}
			if content == "" {
				content = url
			}
			fmt.Fprintln(out, content)
			return nil
		},
	}
	return cmd
}

func newGetFeedsCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "List subscribed feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, user, err := requireUser(cmd, getApp)
			if err != nil {
				return err
			}
			feeds, err := app.reader.ListFeeds(cmd.Context(), user.ID)
			if err != nil {
				return fmt.Errorf("list feeds: %w", err)
			}
			out := cmd.OutOrStdout()
			switch getOutput() {
			case OutputJSON:
				return writeJSON(out, feeds)
			case OutputWide:
				writeFeedsTable(out, feeds, true)
			default:
				writeFeedsTable(out, feeds, false)
			}
			return nil
		},
	}
	return cmd
}

func newGetFoldersCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "List folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, user, err := requireUser(cmd, getApp)
			if err != nil {
				return err
			}
			folders, err := app.reader.ListFolders(cmd.Context(), user.ID)
			if err != nil {
				return fmt.Errorf("list folders: %w", err)
			}
			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, folders)
			}
			writeFoldersTable(out, folders)
			return nil
		},
	}
}

func newGetStatsCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Get aggregate stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, user, err := requireUser(cmd, getApp)
			if err != nil {
				return err
			}
			stats, err := app.reader.Stats(cmd.Context(), user.ID)
			if err != nil {
				return fmt.Errorf("get stats: %w", err)
			}
			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, stats)
			}
			writeStatsTable(out, stats)
			return nil
		},
	}
	return cmd
}

func newGetImportStatusCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var acknowledge bool

	cmd := &cobra.Command{
		Use:   "import-status",
		Short: "Show the progress of the last OPML import",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, user, err := requireUser(cmd, getApp)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			status, err := app.reader.ImportStatus(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("get import status: %w", err)
			}
			if acknowledge {
				if err := app.reader.AcknowledgeImport(ctx, user.ID); err != nil {
					return fmt.Errorf("acknowledge import: %w", err)
				}
			}
			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, status)
			}
			fmt.Fprintf(out, "status: %s (%d/%d feeds)\n", status.Status, status.ProcessedFeeds, status.TotalFeeds)
			return nil
		},
	}
	cmd.Flags().BoolVar(&acknowledge, "ack", false, "Dismiss the finished-import notice")
	return cmd
}
