package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	portal "github.com/miniapp-agency/portal"
	"github.com/miniapp-agency/portal/guard"
	"github.com/miniapp-agency/portal/internal/web"
	"github.com/miniapp-agency/portal/jwt"
	"github.com/miniapp-agency/portal/session"
)

var labelStyle = lipgloss.NewStyle().Bold(true).Width(10)

func newWhoamiCommand(a *app) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Long: `Show the signed-in user. The profile is refreshed from the backend unless
--offline is set; if the backend cannot be reached the cached copy is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.open(cmd)
			if err != nil {
				return err
			}
			if err := guard.Check(engine.Snapshot(), guard.AuthenticatedOnly); err != nil {
				return fmt.Errorf("not signed in: %w", err)
			}

			profile := engine.Snapshot().Profile
			if !offline {
				fresh, err := engine.RefreshProfile(cmd.Context())
				switch {
				case err == nil:
					profile = fresh
				case errors.Is(err, portal.ErrNotAuthenticated):
					return fmt.Errorf("session expired: %w", guard.Check(engine.Snapshot(), guard.AuthenticatedOnly))
				}
			}

			out := cmd.OutOrStdout()
			printProfile(out, profile, engine.AdminPolicy().IsAdmin(engine.Snapshot()))
			printToken(out, engine.Client().Token(), time.Now())
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "show the cached profile without calling the backend")
	return cmd
}

func printProfile(w io.Writer, p *session.UserProfile, admin bool) {
	if p == nil {
		p = &session.UserProfile{}
	}
	row(w, "Email", p.Email)
	row(w, "ID", fmt.Sprint(p.ID))
	row(w, "Name", p.Name)
	row(w, "Phone", p.Phone)
	row(w, "Company", p.CompanyName)
	if admin {
		row(w, "Role", "admin")
	}
}

func printToken(w io.Writer, token string, now time.Time) {
	info, err := jwt.Inspect(token)
	if err != nil {
		row(w, "Token", "opaque")
		return
	}
	row(w, "Token", "JWT "+info.Algorithm)
	row(w, "Subject", info.Subject)
	if !info.ExpiresAt.IsZero() {
		state := "valid"
		if info.Expired(now) {
			state = "expired"
		}
		row(w, "Expires", info.ExpiresAt.UTC().Format(time.RFC3339)+" ("+state+")")
	}
}

func row(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label+":"), value)
}

func newAccessCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "access ROUTE",
		Short: "Check whether the current session may open a page",
		Long: `Evaluate the guard protecting ROUTE against the current session. Exits 0
when allowed and 2 with the redirect target otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.open(cmd)
			if err != nil {
				return err
			}

			guards := web.RouteGuards(engine.AdminPolicy())
			g, ok := guards[args[0]]
			if !ok {
				routes := make([]string, 0, len(guards))
				for r := range guards {
					routes = append(routes, r)
				}
				sort.Strings(routes)
				return fmt.Errorf("unknown route %q (known: %s)", args[0], strings.Join(routes, ", "))
			}
			if err := guard.Check(engine.Snapshot(), g); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: allowed\n", args[0])
			return nil
		},
	}
}
