package web

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/miniapp-agency/portal/gateway"
	"github.com/miniapp-agency/portal/internal/logctx"
)

// requestLogger stores a request-scoped logger in the context and forwards
// the chi request id to backend calls made while serving the request.
func requestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rid := chimw.GetReqID(r.Context())

			l := base.With(
				slog.String("request_id", rid),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			ctx := logctx.Into(r.Context(), l)
			if rid != "" {
				ctx = gateway.WithRequestID(ctx, rid)
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			l.DebugContext(ctx, "request served",
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
