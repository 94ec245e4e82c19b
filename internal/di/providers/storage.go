package providers

import (
	"context"
	"path/filepath"
	"time"

	"github.com/samber/do/v2"

	"github.com/rankdeskapp/rankdesk-server/internal/config"
	"github.com/rankdeskapp/rankdesk-server/internal/logger"
	"github.com/rankdeskapp/rankdesk-server/internal/mail"
	"github.com/rankdeskapp/rankdesk-server/internal/store"
)

// smtpVerifyTimeout bounds the startup SMTP connectivity check.
const smtpVerifyTimeout = 10 * time.Second

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Storage.DataPath, "db")
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// MailerHandle wraps the mail sender with shutdown capability.
type MailerHandle struct {
	mail.Sender
}

// Shutdown implements do.Shutdownable.
func (h *MailerHandle) Shutdown() error {
	return h.Close()
}

// ProvideMailer provides the outbound mail transport. When SMTP is
// configured, connectivity is checked at startup; a failing check is
// logged but not fatal since mail delivery is already best-effort.
func ProvideMailer(i do.Injector) (*MailerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	sender, err := mail.NewSender(cfg.Mail, log.Logger)
	if err != nil {
		return nil, err
	}

	if smtp, ok := sender.(*mail.SMTPSender); ok {
		ctx, cancel := context.WithTimeout(context.Background(), smtpVerifyTimeout)
		defer cancel()
		if err := smtp.Verify(ctx); err != nil {
			log.Warn("SMTP connectivity check failed, outbound mail may not deliver",
				"host", cfg.Mail.Host,
				"error", err,
			)
		} else {
			log.Info("SMTP transport ready", "host", cfg.Mail.Host)
		}
	}

	return &MailerHandle{Sender: sender}, nil
}
