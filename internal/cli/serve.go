package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/miniapp-agency/portal/internal/rate"
	"github.com/miniapp-agency/portal/internal/web"
)

func newServeCommand(a *app) *cobra.Command {
	var (
		addr            string
		noMetrics       bool
		requestTimeout  time.Duration
		shutdownTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the portal over local HTTP",
		Long: `Serve the sign-in API and the guarded pages over HTTP, sharing the session
with the other commands. The profile is refreshed whenever the session becomes
authenticated. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.open(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			go func() {
				if err := engine.WatchProfile(ctx); err != nil && !errors.Is(err, context.Canceled) {
					a.logger.Warn("profile watcher stopped", slog.Any("err", err))
				}
			}()

			var limiter *rate.Limiter
			limit := rate.Config{MaxAttempts: a.cfg.HTTP.RateLimitAttempts, Window: a.cfg.HTTP.RateLimitWindow}
			if a.redis != nil && limit.Enabled() {
				limiter = rate.New(a.redis, a.cfg.Storage.RedisPrefix, limit)
			}

			srv := &http.Server{
				Addr: addr,
				Handler: web.NewRouter(engine, web.Options{
					Logger:  a.logger,
					Timeout: requestTimeout,
					Metrics: !noMetrics,
					Limiter: limiter,
				}),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("listening", slog.String("addr", addr))
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serve: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stop()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			a.logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config http.addr)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not expose /metrics")
	cmd.Flags().DurationVar(&requestTimeout, "request-timeout", 30*time.Second, "per-request deadline")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "time allowed for in-flight requests on shutdown")
	return cmd
}
