// Package cli implements the portal command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	portal "github.com/miniapp-agency/portal"
	"github.com/miniapp-agency/portal/internal/config"
	"github.com/miniapp-agency/portal/notify"
	"github.com/miniapp-agency/portal/session"
)

// Option customizes the command tree. Tests use it to swap out I/O.
type Option func(*app)

// WithStorage replaces the configured session backend.
func WithStorage(s session.Storage) Option {
	return func(a *app) { a.storage = s }
}

// WithPrompter replaces the interactive prompts.
func WithPrompter(p Prompter) Option {
	return func(a *app) { a.prompter = p }
}

type app struct {
	cfgPath  string
	cfg      *config.Config
	logger   *slog.Logger
	storage  session.Storage
	redis    *redis.Client
	prompter Prompter

	engine  *portal.Engine
	closers []func() error
}

func newApp(opts ...Option) *app {
	a := &app{prompter: huhPrompter{}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// rootCommand builds the portal command tree around a.
func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "portal",
		Short: "Sign in to the MiniApp portal from the terminal",
		Long: `portal drives the MiniApp portal sign-in flow: email and password, then a
one-time code sent by email. The session is persisted locally and reused by
later commands until you log out.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default $PORTAL_CONFIG or ./portal.yaml)")

	root.AddCommand(
		newLoginCommand(a),
		newCodeCommand(a),
		newResendCommand(a),
		newForgotCommand(a),
		newLogoutCommand(a),
		newWhoamiCommand(a),
		newAccessCommand(a),
		newConfigCommand(a),
		newServeCommand(a),
	)
	return root
}

// Execute runs the command line and returns the process exit code. The
// engine is closed before returning, so queued notifications are printed
// even when the command failed.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...Option) int {
	a := newApp(opts...)
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		printError(stderr, err)
	}
	return ExitCode(ctx, err)
}

// load reads the configuration and builds the logger once per process.
func (a *app) load(cmd *cobra.Command) (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	a.logger = cfg.Log.NewLogger(cmd.ErrOrStderr())
	return cfg, nil
}

// open builds the engine and restores any persisted session.
func (a *app) open(cmd *cobra.Command) (*portal.Engine, error) {
	if a.engine != nil {
		return a.engine, nil
	}
	cfg, err := a.load(cmd)
	if err != nil {
		return nil, err
	}

	storage := a.storage
	if storage == nil {
		s, rdb, closeFn, err := openStorage(cmd.Context(), cfg)
		if err != nil {
			return nil, err
		}
		storage = s
		a.redis = rdb
		if closeFn != nil {
			a.closers = append(a.closers, closeFn)
		}
	}

	engine, err := portal.New().
		WithConfig(cfg.Engine()).
		WithStorage(storage).
		WithNotifier(notify.NewTerminalNotifier(cmd.ErrOrStderr())).
		WithLogger(a.logger).
		Build()
	if err != nil {
		return nil, err
	}
	a.engine = engine
	a.closers = append(a.closers, func() error { engine.Close(); return nil })

	engine.Restore(cmd.Context())
	return engine, nil
}

// close releases everything open opened, newest first. Closing the engine
// flushes queued notifications.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	a.engine = nil
	return errors.Join(errs...)
}

func printError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
}
