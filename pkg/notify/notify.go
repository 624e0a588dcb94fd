// Package notify is the toast side channel: callers report a severity and a
// short user-facing message and never depend on a return value.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Severity classifies a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Notification is a single toast.
type Notification struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Notifier delivers notifications. Implementations must not block for long;
// delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a function into a Notifier.
type Func func(ctx context.Context, n Notification)

// Notify implements Notifier.
func (fn Func) Notify(ctx context.Context, n Notification) {
	if fn != nil {
		fn(ctx, n)
	}
}

// Discard drops every notification.
var Discard Notifier = Func(nil)

// Multi fans a notification out to every non-nil notifier in order.
func Multi(notifiers ...Notifier) Notifier {
	list := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			list = append(list, n)
		}
	}
	return Func(func(ctx context.Context, n Notification) {
		for _, target := range list {
			target.Notify(ctx, n)
		}
	})
}

// Log writes notifications to logger at a level matching the severity.
func Log(logger *slog.Logger) Notifier {
	if logger == nil {
		return Discard
	}
	return Func(func(ctx context.Context, n Notification) {
		level := slog.LevelInfo
		if n.Severity == SeverityError {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "notification", "severity", string(n.Severity), "message", n.Message)
	})
}

// Recorder keeps notifications until they are drained. The HTTP surface uses
// it as per-session flash storage.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Drain returns and clears the recorded notifications.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}
