package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/rankdeskapp/rankdesk-server/internal/api"
	"github.com/rankdeskapp/rankdesk-server/internal/config"
	"github.com/rankdeskapp/rankdesk-server/internal/logger"
	"github.com/rankdeskapp/rankdesk-server/internal/service"
)

const shutdownTimeout = 15 * time.Second

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := api.Services{
		Auth:      do.MustInvoke[*service.AuthService](i),
		Users:     do.MustInvoke[*service.UserService](i),
		Accounts:  do.MustInvoke[*service.AccountService](i),
		Posts:     do.MustInvoke[*service.BlogPostService](i),
		Backlinks: do.MustInvoke[*service.BacklinkService](i),
		Invites:   do.MustInvoke[*service.InviteService](i),
		Dashboard: do.MustInvoke[*service.DashboardService](i),
	}

	handler := api.NewServer(services, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "public_url", cfg.Server.PublicURL)

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
