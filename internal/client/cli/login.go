package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login [email|name]",
		Short: "Sign in and remember the credential",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var login string
			if len(args) == 1 {
				login = args[0]
			} else {
				var err error
				if login, err = GetSimpleText(a.in, "Email or name", out); err != nil {
					return err
				}
			}

			password, err := GetPassword(a.in, out)
			if err != nil {
				return err
			}

			res, err := a.api.Login(ctx, login, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := a.saveSession(ctx, res.AccessToken); err != nil {
				return err
			}

			fmt.Fprintf(out, "Logged in as %s\n", res.Email)
			if !res.Verified {
				fmt.Fprintln(out, "This account is not verified yet; creating posts requires a verified account.")
			}
			return nil
		},
	}
}

func (a *App) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.clearSession(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
