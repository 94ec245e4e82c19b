package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/rankdeskapp/rankdesk-server/internal/logger"
)

// TokenReaperJob periodically removes expired verification, password
// reset and invitation tokens. Expired tokens are also deleted
// opportunistically on lookup; the reaper catches the ones nobody ever
// presents again.
type TokenReaperJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *TokenReaperJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideTokenReaperJob provides the periodic token cleanup job.
func ProvideTokenReaperJob(i do.Injector) (*TokenReaperJob, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		// Initial cleanup on startup
		if count, err := storeHandle.DeleteExpiredTokens(time.Now()); err != nil {
			log.Warn("Initial token cleanup failed", "error", err)
		} else if count > 0 {
			log.Info("Initial token cleanup completed", "deleted", count)
		}

		for {
			select {
			case <-ticker.C:
				if count, err := storeHandle.DeleteExpiredTokens(time.Now()); err != nil {
					log.Warn("Token cleanup failed", "error", err)
				} else if count > 0 {
					log.Info("Token cleanup completed", "deleted", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Token cleanup job started")

	return &TokenReaperJob{cancel: cancel}, nil
}
