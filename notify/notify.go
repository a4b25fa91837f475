package notify

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Level classifies a notification for display.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification is a single user-facing message.
type Notification struct {
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// Notifier receives notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a plain function to [Notifier].
type Func func(ctx context.Context, n Notification)

func (f Func) Notify(ctx context.Context, n Notification) {
	if f != nil {
		f(ctx, n)
	}
}

// NoOpNotifier drops every notification.
type NoOpNotifier struct{}

func (NoOpNotifier) Notify(context.Context, Notification) {}

// ChannelNotifier writes notifications into a buffered channel.
type ChannelNotifier struct {
	events chan Notification
}

func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelNotifier{
		events: make(chan Notification, buffer),
	}
}

func (s *ChannelNotifier) Notify(ctx context.Context, n Notification) {
	select {
	case s.events <- n:
	case <-ctx.Done():
	}
}

func (s *ChannelNotifier) Events() <-chan Notification {
	return s.events
}

// JSONWriterNotifier writes one JSON object per line.
type JSONWriterNotifier struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterNotifier(w io.Writer) *JSONWriterNotifier {
	return &JSONWriterNotifier{
		writer: w,
	}
}

func (s *JSONWriterNotifier) Notify(_ context.Context, n Notification) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(n)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// Recorder keeps notifications in memory until drained. The local portal
// server uses it as a flash queue; tests use it to count notifications.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of every recorded notification.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Len reports how many notifications are queued.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Drain returns and forgets every recorded notification.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}

// Multi fans a notification out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, target := range m {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}

// Error is a convenience for emitting an error-level notification.
func Error(ctx context.Context, n Notifier, source, message string) {
	emit(ctx, n, LevelError, source, message)
}

// Success is a convenience for emitting a success-level notification.
func Success(ctx context.Context, n Notifier, source, message string) {
	emit(ctx, n, LevelSuccess, source, message)
}

func emit(ctx context.Context, n Notifier, level Level, source, message string) {
	if n == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	n.Notify(ctx, Notification{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		Source:    source,
	})
}
