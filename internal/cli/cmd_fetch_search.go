package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFetchCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [feed-id]",
		Short: "Fetch all feeds or one feed by ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			var id *int64
			if len(args) == 1 {
				v, err := parseIDArg(args[0])
				if err != nil {
					return err
				}
				id = &v
			}

			errOut := cmd.ErrOrStderr()
			rep, err := app.fetcher.FetchWithProgress(cmd.Context(), id, func(done, total int, result FetchResult) {
				label := fallback(result.FeedTitle, result.FeedURL)
				switch {
				case result.Error != "":
					fmt.Fprintf(errOut, "[%d/%d] %s -> error: %s\n", done, total, label, result.Error)
				case result.NotModified:
					fmt.Fprintf(errOut, "[%d/%d] %s -> not modified\n", done, total, label)
				default:
					fmt.Fprintf(errOut, "[%d/%d] %s -> %d new, %d updated, %d skipped\n", done, total, label, result.NewEntries, result.Updated, result.Skipped)
				}
			})
			if err != nil {
				return fmt.Errorf("fetch feeds: %w", err)
			}
			for _, warning := range rep.Warnings {
				fmt.Fprintf(errOut, "warning: %s\n", warning)
			}
			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, rep)
			}
			writeFetchReportTable(out, rep)
			return nil
		},
	}
	return cmd
}

func newSearchCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search your entries with full-text search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, user, err := requireUser(cmd, getApp)
			if err != nil {
				return err
			}
			entries, err := app.reader.Search(cmd.Context(), user.ID, SearchOptions{
				Query: args[0],
				Limit: limit,
			})
			if err != nil {
				return fmt.Errorf("search entries: %w", err)
			}
			return app.writeEntries(cmd.OutOrStdout(), getOutput(), entries)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Result limit")
	return cmd
}
