package mail

import (
	"context"
	"log/slog"
)

// LogSender logs outbound mail instead of delivering it. Used when SMTP
// is not configured and in tests.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a logging sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("outbound mail (not sent, SMTP disabled)",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

// Close is a no-op.
func (s *LogSender) Close() error {
	return nil
}
