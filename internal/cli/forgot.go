package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/miniapp-agency/portal/guard"
)

func newForgotCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forgot",
		Short: "Reset a forgotten password",
	}
	cmd.AddCommand(newForgotRequestCommand(a), newForgotResetCommand(a))
	return cmd
}

func newForgotRequestCommand(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Email a password reset code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.open(cmd)
			if err != nil {
				return err
			}
			if err := guard.Check(engine.Snapshot(), guard.AnonymousOnly); err != nil {
				return err
			}
			if email, err = ask(a.prompter, email, "Email", false); err != nil {
				return err
			}
			if err := engine.RequestForgotPassword(cmd.Context(), email); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Reset code sent. Run: portal forgot reset --email %s\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newForgotResetCommand(a *app) *cobra.Command {
	var email, code, password string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with the emailed reset code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.open(cmd)
			if err != nil {
				return err
			}
			if err := guard.Check(engine.Snapshot(), guard.AnonymousOnly); err != nil {
				return err
			}
			if email, err = ask(a.prompter, email, "Email", false); err != nil {
				return err
			}
			if code, err = ask(a.prompter, code, "Code", false); err != nil {
				return err
			}
			if password, err = ask(a.prompter, password, "New password", true); err != nil {
				return err
			}

			res, err := engine.ForgotPassword(cmd.Context(), email, code, password)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Password updated (next: %s)\n", res.Redirect)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&code, "code", "", "reset code")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	return cmd
}
