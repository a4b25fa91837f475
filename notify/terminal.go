package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	infoStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// TerminalNotifier renders notifications as one styled line each, the CLI
// equivalent of a toast.
type TerminalNotifier struct {
	w  io.Writer
	mu sync.Mutex
}

func NewTerminalNotifier(w io.Writer) *TerminalNotifier {
	return &TerminalNotifier{w: w}
}

func (t *TerminalNotifier) Notify(_ context.Context, n Notification) {
	if t == nil || t.w == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintf(t.w, "%s %s\n", badge(n.Level), n.Message)
}

func badge(level Level) string {
	switch level {
	case LevelSuccess:
		return successStyle.Render("✓")
	case LevelError:
		return errorStyle.Render("✗")
	default:
		return infoStyle.Render("•")
	}
}
