package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSubscribeCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe <url>",
		Short: "Subscribe to a feed, discovering it from a site URL if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, user, err := requireUser(cmd, getApp)
			if err != nil {
				return err
			}
			feed, err := app.reader.Subscribe(cmd.Context(), user.ID, args[0])
			if err != nil {
				return fmt.Errorf("subscribe: %w", err)
			}
			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, SubscribeResponse{Feed: feed, Found: feed != nil})
			}
			if feed == nil {
				fmt.Fprintf(out, "No feed found at %s\n", args[0])
				return nil
			}
			writeFeedsTable(out, []Feed{*feed}, getOutput() == OutputWide)
			return nil
		},
	}
}

func newUnsubscribeCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "unsubscribe <feed-id>",
		Short: "Unsubscribe from a feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, user, err := requireUser(cmd, getApp)
			if err != nil {
				return err
			}
			feedID, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			res, err := app.reader.Unsubscribe(cmd.Context(), user.ID, feedID)
			if err != nil {
				return fmt.Errorf("unsubscribe: %w", err)
			}
			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, UnsubscribeResponse{res})
			}
			fmt.Fprintf(out, "Unsubscribed from feed %d\n", res.FeedID)
			if res.DeletedFolderID != nil {
				fmt.Fprintf(out, "Deleted empty folder %d\n", *res.DeletedFolderID)
			}
			if res.FeedDeleted {
				fmt.Fprintf(out, "Feed %d had no subscribers left and was deleted\n", res.FeedID)
			}
			return nil
		},
	}
}
