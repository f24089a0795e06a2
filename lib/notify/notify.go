package notify

import (
	"context"
	"log/slog"

	"github.com/lepaya/data-snowflake-client/lib/redact"
)

type Severity string

const (
	Info    Severity = "info"
	Warning Severity = "warning"
	Error   Severity = "error"
)

type Message struct {
	Text     string
	Severity Severity
	// Temporary messages are replaced by whatever message comes next.
	Temporary bool
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

type Nop struct{}

func (Nop) Notify(context.Context, Message) error {
	return nil
}

// Send scrubs the message and hands it to [n]. Failures are logged and never returned.
func Send(ctx context.Context, n Notifier, msg Message) {
	if n == nil {
		return
	}

	msg.Text = redact.Scrub(msg.Text)
	if err := n.Notify(ctx, msg); err != nil {
		slog.Warn("Failed to send notification", slog.Any("err", err), slog.String("severity", string(msg.Severity)))
	}
}
