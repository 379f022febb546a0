package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/odysseus0/sharedfeed/internal/store"
)

func requireApp(getApp func() *App) (*App, error) {
	app := getApp()
	if app == nil {
		return nil, errors.New("app not initialized")
	}
	return app, nil
}

// requireUser returns the app together with the selected user.
func requireUser(cmd *cobra.Command, getApp func() *App) (*App, User, error) {
	app, err := requireApp(getApp)
	if err != nil {
		return nil, User{}, err
	}
	user, err := app.currentUser(cmd.Context())
	if err != nil {
		return nil, User{}, err
	}
	return app, user, nil
}

func parseIDArg(s string) (int64, error) {
	id, err := parseID(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	return id, nil
}

func (a *App) writeEntries(out io.Writer, format OutputFormat, entries []Entry) error {
	switch format {
	case OutputJSON:
		return writeJSON(out, entries)
	case OutputWide:
		writeEntriesTable(out, entries, true, a.renderer.Excerpt)
	default:
		writeEntriesTable(out, entries, false, a.renderer.Excerpt)
	}
	return nil
}
