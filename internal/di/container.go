// Package di provides dependency injection configuration for the Shelf server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/shelf/internal/config"
	"github.com/listenupapp/shelf/internal/di/providers"
	"github.com/listenupapp/shelf/internal/logger"
	"github.com/listenupapp/shelf/internal/resolver"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Events and persistence
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideStore)

	// Metadata lookup
	do.Provide(injector, providers.ProvideMetadataClients)
	do.Provide(injector, providers.ProvideResolver)

	// Capture pipeline
	do.Provide(injector, providers.ProvideSessions)

	// Server and token sources
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideInboxWatcher)

	return injector
}

// Bootstrap initializes all services in dependency order.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)

	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*providers.MetadataClientsHandle](injector)
	if _, err := do.Invoke[*resolver.Resolver](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.SessionsHandle](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	if _, err := do.Invoke[*providers.InboxWatcherHandle](injector); err != nil {
		return err
	}

	return nil
}
