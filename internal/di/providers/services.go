package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/shelf/internal/config"
	"github.com/listenupapp/shelf/internal/logger"
	"github.com/listenupapp/shelf/internal/resolver"
	"github.com/listenupapp/shelf/internal/service"
)

// SessionsHandle wraps the session registry so in-flight captures settle on shutdown.
type SessionsHandle struct {
	*service.Sessions
}

// Shutdown implements do.Shutdownable.
func (h *SessionsHandle) Shutdown() error {
	return h.Sessions.Shutdown()
}

// ProvideSessions provides the per-user session registry.
func ProvideSessions(i do.Injector) (*SessionsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	res := do.MustInvoke[*resolver.Resolver](i)

	sessions := service.NewSessions(service.SessionConfig{
		Store:        storeHandle.Catalog,
		Resolver:     res,
		Emitter:      sseHandle.Manager,
		Logger:       log.ForComponent("service"),
		StoreTimeout: cfg.Store.Timeout,
	})

	return &SessionsHandle{Sessions: sessions}, nil
}
