// Package notify is the user-feedback surface of the session manager: every
// login, signup, or logout outcome is reported as a Notification pushed into
// a Sink. UI layers decide how to render them.
package notify

import (
	"context"

	"github.com/mlapshin/authkeep/internal/logging"
)

// Severity classifies a notification.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// Notification is a single piece of user-facing feedback.
type Notification struct {
	Title       string
	Description string
	Severity    Severity
}

// Sink consumes notifications. Implementations must not block for long;
// the session manager calls Notify inline.
type Sink interface {
	Notify(n Notification)
}

// LogSink renders notifications through a structured logger.
type LogSink struct {
	log logging.Logger
}

func NewLogSink(log logging.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Notify(n Notification) {
	ctx := context.Background()
	if n.Severity == SeverityError {
		s.log.Error(ctx, n.Title, "detail", n.Description)
		return
	}
	s.log.Info(ctx, n.Title, "detail", n.Description)
}

// MemorySink collects notifications for inspection in tests.
type MemorySink struct {
	Notifications []Notification
}

func (s *MemorySink) Notify(n Notification) {
	s.Notifications = append(s.Notifications, n)
}

// Last returns the most recent notification, or false when none were sent.
func (s *MemorySink) Last() (Notification, bool) {
	if len(s.Notifications) == 0 {
		return Notification{}, false
	}
	return s.Notifications[len(s.Notifications)-1], true
}
