package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odysseus0/sharedfeed/internal/model"
)

func newRefreshCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var feedID int64
	var folder string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch a feed or folder now and list its unread entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, user, err := requireUser(cmd, getApp)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var resp RefreshResponse
			if feedID > 0 {
				resp.Entries, err = app.reader.RefreshFeed(ctx, user.ID, feedID)
				if err != nil {
					return fmt.Errorf("refresh feed: %w", err)
				}
			} else {
				if strings.TrimSpace(folder) == "" {
					folder = model.FolderAll
				}
				resp.Entries, resp.Report, err = app.reader.RefreshFolder(ctx, user.ID, folder)
				if err != nil {
					return fmt.Errorf("refresh folder: %w", err)
				}
				for _, r := range resp.Report.Results {
					if r.Error != "" {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", fallback(r.FeedTitle, r.FeedURL), r.Error)
					}
				}
			}

			if getOutput() == OutputJSON {
				return writeJSON(out, resp)
			}
			return app.writeEntries(out, getOutput(), resp.Entries)
		},
	}
	cmd.Flags().Int64Var(&feedID, "feed", 0, "Feed ID to refresh")
	cmd.Flags().StringVar(&folder, "folder", "", "Folder ID to refresh, or all")
	cmd.MarkFlagsMutuallyExclusive("feed", "folder")
	return cmd
}
