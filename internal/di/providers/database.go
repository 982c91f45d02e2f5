package providers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/listenupapp/shelf/internal/config"
	"github.com/listenupapp/shelf/internal/logger"
	"github.com/listenupapp/shelf/internal/sse"
	"github.com/listenupapp/shelf/internal/store"
	"github.com/listenupapp/shelf/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.ForComponent("sse"))

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the configured catalog backend with shutdown capability.
type StoreHandle struct {
	store.Catalog
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the catalog store selected by STORE_BACKEND and wires it to the search index.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	var (
		catalog store.Catalog
		path    string
		err     error
	)
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		path = filepath.Join(cfg.Store.DataPath, "catalog.sqlite")
		catalog, err = sqlite.Open(path, log.ForComponent("store"), sseHandle.Manager)
	case config.BackendBadger, "":
		path = filepath.Join(cfg.Store.DataPath, "db")
		catalog, err = store.New(path, log.ForComponent("store"), sseHandle.Manager)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, err
	}

	catalog.SetSearchIndexer(indexHandle.SearchIndex)

	log.Info("Catalog store initialized", "backend", cfg.Store.Backend, "path", path)

	return &StoreHandle{Catalog: catalog}, nil
}
