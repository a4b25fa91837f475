package web

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/miniapp-agency/portal/internal/logctx"
	"github.com/miniapp-agency/portal/internal/rate"
)

// throttle limits attempts on scope per client address. Redis failures let
// the request through.
func throttle(l *rate.Limiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			err := l.Allow(r.Context(), scope, ip)
			switch {
			case err == nil:
			case errors.Is(err, rate.ErrRateLimited):
				retry := l.RetryAfter(r.Context(), scope, ip)
				w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
				writeJSON(w, http.StatusTooManyRequests, errorResponse{Message: "too many attempts, try again later"})
				return
			default:
				logctx.From(r.Context()).WarnContext(r.Context(), "rate limiter unavailable",
					slog.String("scope", scope), slog.Any("err", err))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
