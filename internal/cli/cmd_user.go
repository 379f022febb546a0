package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUserCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserAddCmd(getApp, getOutput))
	cmd.AddCommand(newUserListCmd(getApp, getOutput))
	cmd.AddCommand(newUserRemoveCmd(getApp, getOutput))
	return cmd
}

func newUserAddCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "add <email>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			user, err := app.reader.CreateUser(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, user)
			}
			writeUsersTable(out, []User{user})
			return nil
		},
	}
}

func newUserListCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			users, err := app.reader.ListUsers(cmd.Context())
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, users)
			}
			writeUsersTable(out, users)
			return nil
		},
	}
}

func newUserRemoveCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <email>",
		Short: "Delete a user and every subscription they hold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			user, err := app.reader.UserByEmail(ctx, args[0])
			if err != nil {
				return fmt.Errorf("find user: %w", err)
			}
			results, err := app.reader.DeleteUser(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("delete user: %w", err)
			}
			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, DeleteUserResponse{Email: user.Email, Subscriptions: results})
			}
			deleted := 0
			for _, r := range results {
				if r.FeedDeleted {
					deleted++
				}
			}
			fmt.Fprintf(out, "Removed user %s (%d subscription(s), %d feed(s) deleted)\n", user.Email, len(results), deleted)
			return nil
		},
	}
}
