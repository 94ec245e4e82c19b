package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/rankdeskapp/rankdesk-server/internal/config"
	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers mail over an authenticated SMTP connection.
type SMTPSender struct {
	client *gomail.Client
	from   string
	logger *slog.Logger
}

// NewSMTPSender creates the SMTP transport from config.
func NewSMTPSender(cfg config.MailConfig, logger *slog.Logger) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPSender{
		client: client,
		from:   cfg.From,
		logger: logger,
	}, nil
}

// Verify dials the SMTP server to confirm the transport works, then
// hangs up. Called once at startup so misconfiguration surfaces early.
func (s *SMTPSender) Verify(ctx context.Context) error {
	if err := s.client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("smtp close after verify: %w", err)
	}
	s.logger.Info("SMTP transport verified")
	return nil
}

// Send delivers one message.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetMessageIDWithValue(uuid.NewString())
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}

	s.logger.Debug("mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// Close shuts down the SMTP connection if one is open. Closing without
// an active connection is not worth failing shutdown over.
func (s *SMTPSender) Close() error {
	if err := s.client.Close(); err != nil {
		s.logger.Debug("smtp close", "error", err)
	}
	return nil
}
