package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odysseus0/sharedfeed/internal/model"
	"github.com/odysseus0/sharedfeed/internal/store"
)

func newFolderCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Organize subscriptions into folders",
	}
	cmd.AddCommand(newFolderMoveCmd(getApp, getOutput))
	cmd.AddCommand(newFolderRemoveFeedCmd(getApp, getOutput))
	return cmd
}

func newFolderMoveCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var newTitle string

	cmd := &cobra.Command{
		Use:   "move <feed-id> [folder-id]",
		Short: "Move a feed into an existing folder or a new one",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, user, err := requireUser(cmd, getApp)
			if err != nil {
				return err
			}
			feedID, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			newTitle = strings.TrimSpace(newTitle)

			var change model.FolderChange
			switch {
			case len(args) == 2 && newTitle != "":
				return fmt.Errorf("%w: pass either a folder id or --new, not both", store.ErrInvalidInput)
			case len(args) == 2:
				folderID, err := parseIDArg(args[1])
				if err != nil {
					return err
				}
				change, err = app.reader.AddFeedToFolder(cmd.Context(), user.ID, feedID, folderID)
				if err != nil {
					return fmt.Errorf("move feed: %w", err)
				}
			case newTitle != "":
				change, err = app.reader.AddFeedToNewFolder(cmd.Context(), user.ID, feedID, newTitle)
				if err != nil {
					return fmt.Errorf("move feed: %w", err)
				}
			default:
				return fmt.Errorf("%w: a folder id or --new <title> is required", store.ErrInvalidInput)
			}

			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, change)
			}
			fmt.Fprintf(out, "Feed %d is now in folder %d (%s)\n", change.Feed.ID, change.NewFolder.ID, change.NewFolder.Title)
			if change.OldFolder != nil {
				fmt.Fprintf(out, "Left folder %d (%s)", change.OldFolder.ID, change.OldFolder.Title)
				if change.OldFolderDeleted {
					fmt.Fprint(out, ", which was empty and got deleted")
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&newTitle, "new", "", "Create a folder with this title")
	return cmd
}

func newFolderRemoveFeedCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-feed <feed-id>",
		Short: "Take a feed out of its folder",
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
			exists, err := app.reader.RemoveFeedFromFolder(cmd.Context(), user.ID, feedID)
			if err != nil {
				return fmt.Errorf("remove feed from folder: %w", err)
			}
			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, RemoveFromFolderResponse{FeedID: feedID, FolderExists: exists})
			}
			if exists {
				fmt.Fprintf(out, "Removed feed %d from its folder\n", feedID)
			} else {
				fmt.Fprintf(out, "Removed feed %d from its folder; the folder was empty and got deleted\n", feedID)
			}
			return nil
		},
	}
}
