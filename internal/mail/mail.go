// Package mail sends transactional email: client invitations, address
// verification, and password resets. The SMTP transport is constructed
// explicitly and injected; when no SMTP host is configured a logging
// sender stands in so flows behave identically in development.
package mail

import (
	"context"
	"log/slog"

	"github.com/rankdeskapp/rankdesk-server/internal/config"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers messages. Implementations own their transport
// lifecycle; Close releases it.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// NewSender builds the configured sender: SMTP when a host is set,
// otherwise the logging stand-in.
func NewSender(cfg config.MailConfig, logger *slog.Logger) (Sender, error) {
	if !cfg.Enabled() {
		logger.Info("SMTP not configured, outbound mail will be logged only")
		return NewLogSender(logger), nil
	}
	return NewSMTPSender(cfg, logger)
}
