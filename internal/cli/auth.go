package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	portal "github.com/miniapp-agency/portal"
	"github.com/miniapp-agency/portal/guard"
)

func newLoginCommand(a *app) *cobra.Command {
	var (
		email    string
		password string
		code     string
		noCode   bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email, password and the emailed code",
		Long: `Submit email and password, then the one-time code the backend emails you.
Missing values are prompted for. With --no-code the command stops after the
first step; finish later with "portal code".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.open(cmd)
			if err != nil {
				return err
			}
			if err := guard.Check(engine.Snapshot(), guard.AnonymousOnly); err != nil {
				return fmt.Errorf("already signed in as %s: %w", engine.Snapshot().Email(), err)
			}

			if email, err = ask(a.prompter, email, "Email", false); err != nil {
				return err
			}
			if password, err = ask(a.prompter, password, "Password", true); err != nil {
				return err
			}
			if err := engine.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			if noCode {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Code sent. Run: portal code --email %s\n", email)
				return nil
			}

			return checkCode(cmd, a, engine, email, code)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&code, "code", "", "one-time code, when already known")
	cmd.Flags().BoolVar(&noCode, "no-code", false, "stop after sending the code")
	return cmd
}

func newCodeCommand(a *app) *cobra.Command {
	var email, code string

	cmd := &cobra.Command{
		Use:   "code",
		Short: "Submit the one-time code emailed after login",
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
			return checkCode(cmd, a, engine, email, code)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&code, "code", "", "one-time code")
	return cmd
}

func checkCode(cmd *cobra.Command, a *app, engine *portal.Engine, email, code string) error {
	code, err := ask(a.prompter, code, "Code", false)
	if err != nil {
		return err
	}
	res, err := engine.CheckCode(cmd.Context(), email, code)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (next: %s)\n", res.Profile.Email, res.Redirect)
	return nil
}

func newResendCommand(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "resend",
		Short: "Send a fresh login code",
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
			return engine.ResendCode(cmd.Context(), email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.open(cmd)
			if err != nil {
				return err
			}
			return engine.Logout(cmd.Context())
		},
	}
}
