package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odysseus0/sharedfeed/internal/model"
	"github.com/odysseus0/sharedfeed/internal/store"
)

func newMarkCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var state string
	var scope string

	cmd := &cobra.Command{
		Use:   "mark <entry-id>",
		Short: "Mark an entry, or it and every older entry in a scope, read or unread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, user, err := requireUser(cmd, getApp)
			if err != nil {
				return err
			}
			entryID, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			state = strings.ToLower(strings.TrimSpace(state))
			if state != model.StateRead && state != model.StateUnread {
				return fmt.Errorf("%w: state must be read or unread", store.ErrInvalidInput)
			}
			sc := model.ChangeScope(strings.ToLower(strings.TrimSpace(scope)))

			n, err := app.reader.ChangeState(cmd.Context(), user.ID, entryID, state, sc)
			if err != nil {
				return fmt.Errorf("mark entry: %w", err)
			}
			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, MarkResponse{EntryID: entryID, State: state, Scope: sc, Changed: n})
			}
			fmt.Fprintf(out, "Marked %d entr%s %s\n", n, plural(n, "y", "ies"), state)
			return nil
		},
	}
	cmd.Flags().StringVar(&state, "state", model.StateRead, "Target state: read, unread")
	cmd.Flags().StringVar(&scope, "scope", string(model.ScopeSingle), "Scope: single, feed, folder, all")
	return cmd
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
