package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.opml>",
		Short: "Subscribe to the feeds of an OPML file or URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, user, err := requireUser(cmd, getApp)
			if err != nil {
				return err
			}
			report, err := app.reader.ImportSubscriptions(cmd.Context(), user.ID, args[0])
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, report)
			}

			fmt.Fprintf(out, "Imported %d feeds from %s\n", report.Total, report.File)
			fmt.Fprintf(out, "Added: %d, Existing: %d, Failed: %d\n", report.Added, report.Existing, report.Failed)
			if getOutput() == OutputWide {
				for _, r := range report.Results {
					if r.Error != "" {
						fmt.Fprintf(out, "- %s -> error: %s\n", r.InputURL, r.Error)
					}
				}
			}
			return nil
		},
	}
	return cmd
}

func newExportCmd(getApp func() *App, _ func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export subscriptions as OPML to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, user, err := requireUser(cmd, getApp)
			if err != nil {
				return err
			}
			return app.reader.ExportSubscriptions(cmd.Context(), user.ID, cmd.OutOrStdout())
		},
	}
	return cmd
}
