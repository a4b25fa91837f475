package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	portal "github.com/miniapp-agency/portal"
	"github.com/miniapp-agency/portal/guard"
	"github.com/miniapp-agency/portal/internal/rate"
	"github.com/miniapp-agency/portal/metrics/export/prometheus"
	"github.com/miniapp-agency/portal/middleware"
)

// Page routes.
const (
	RouteHome     = guard.RouteHome
	RouteLogin    = guard.RouteLogin
	RouteProjects = "/account/projects"
	RouteAdmin    = "/admin"
)

// Options configures NewRouter.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	// Metrics mounts /metrics when set.
	Metrics bool
	// Limiter throttles the anonymous auth endpoints per client address.
	Limiter *rate.Limiter
}

// RouteGuards maps every page route to the guard protecting it.
func RouteGuards(policy guard.AdminPolicy) map[string]guard.Func {
	return map[string]guard.Func{
		RouteHome:     guard.AuthenticatedOnly,
		RouteLogin:    guard.AnonymousOnly,
		RouteProjects: guard.AuthenticatedOnly,
		RouteAdmin:    policy.AdminOnly,
	}
}

// NewRouter builds the HTTP handler around engine.
func NewRouter(engine *portal.Engine, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	root := chi.NewRouter()
	root.Use(
		chimw.Recoverer,
		chimw.RequestID,
		requestLogger(logger),
	)
	if opts.Timeout > 0 {
		root.Use(chimw.Timeout(opts.Timeout))
	}

	h := &handlers{engine: engine}
	guards := RouteGuards(engine.AdminPolicy())
	source := engine.AuthState()

	root.Get("/healthz", h.health)
	if opts.Metrics {
		root.Method(http.MethodGet, "/metrics", prometheus.Handler(engine))
	}

	root.Route("/auth", func(r chi.Router) {
		r.Get("/state", h.state)
		r.Post("/logout", h.logout)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAnonymous(source))
			r.With(throttle(opts.Limiter, "login")).Post("/login", h.login)
			r.With(throttle(opts.Limiter, "check-code")).Post("/check-code", h.checkCode)
			r.With(throttle(opts.Limiter, "resend-code")).Post("/resend-code", h.resendCode)
			r.With(throttle(opts.Limiter, "forgot-request")).Post("/forgot-password/request", h.requestForgotPassword)
			r.With(throttle(opts.Limiter, "forgot-reset")).Post("/forgot-password", h.forgotPassword)
		})
	})

	root.With(middleware.Guard(source, guards[RouteHome])).Get(RouteHome, h.home)
	root.With(middleware.Guard(source, guards[RouteLogin])).Get(RouteLogin, h.loginPage)
	root.With(middleware.Guard(source, guards[RouteProjects])).Get(RouteProjects, h.projects)
	root.With(middleware.Guard(source, guards[RouteAdmin])).Get(RouteAdmin, h.admin)

	return root
}
