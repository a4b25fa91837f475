// Package logctx carries a request-scoped *slog.Logger through context and
// masks secrets before they reach a log line.
package logctx

import (
	"context"
	"log/slog"
	"strings"
)

type ctxKey struct{}

// Into returns a child context carrying l.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the logger stored in ctx, or slog.Default().
func From(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}

// FromOr returns the logger stored in ctx, or fallback when ctx carries none.
// A nil fallback behaves like From.
func FromOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}

// Email masks the local part of an address, keeping the domain:
//
//	"foobar@example.com" -> "fo***@example.com"
//	"ab@ex.com"          -> "***@ex.com"
//	"no-at"              -> "***"
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token reduces a bearer token to a short prefix safe for logs.
func Token(tok string) string {
	if tok == "" {
		return ""
	}
	r := []rune(tok)
	if len(r) <= 8 {
		return "[REDACTED_TOKEN]"
	}
	return string(r[:4]) + "…[REDACTED_TOKEN]"
}
