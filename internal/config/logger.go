package config

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the process logger described by c. Invalid values were
// rejected by Validate; anything left unparsable falls back to warn/text.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := ParseLevel(c.Level)
	if err != nil {
		lvl = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	if strings.EqualFold(c.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}
