// Package di provides dependency injection configuration for the RankDesk server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/rankdeskapp/rankdesk-server/internal/auth"
	"github.com/rankdeskapp/rankdesk-server/internal/config"
	"github.com/rankdeskapp/rankdesk-server/internal/di/providers"
	"github.com/rankdeskapp/rankdesk-server/internal/logger"
	"github.com/rankdeskapp/rankdesk-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database and mail transport
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideMailer)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideInviteService)
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideAccountService)
	do.Provide(injector, providers.ProvideBlogPostService)
	do.Provide(injector, providers.ProvideBacklinkService)
	do.Provide(injector, providers.ProvideDashboardService)

	// Workers
	do.Provide(injector, providers.ProvideTokenReaperJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.MailerHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.InviteService](injector)
	_ = do.MustInvoke[*service.UserService](injector)
	_ = do.MustInvoke[*service.AccountService](injector)
	_ = do.MustInvoke[*service.BlogPostService](injector)
	_ = do.MustInvoke[*service.BacklinkService](injector)
	_ = do.MustInvoke[*service.DashboardService](injector)

	// Workers
	_ = do.MustInvoke[*providers.TokenReaperJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
