package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/shelf/internal/capture/inbox"
	"github.com/listenupapp/shelf/internal/config"
	"github.com/listenupapp/shelf/internal/logger"
)

// InboxWatcherHandle wraps the inbox watcher with shutdown capability.
// Watcher is nil when no inbox directory is configured.
type InboxWatcherHandle struct {
	*inbox.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *InboxWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Watcher.Stop()
}

// ProvideInboxWatcher provides the drop-directory token source, feeding the session registry.
func ProvideInboxWatcher(i do.Injector) (*InboxWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sessionsHandle := do.MustInvoke[*SessionsHandle](i)

	if cfg.Inbox.Path == "" {
		log.Info("Inbox watcher disabled, no INBOX_PATH configured")
		return &InboxWatcherHandle{}, nil
	}

	w, err := inbox.New(cfg.Inbox.Path, sessionsHandle.Sessions, log.ForComponent("inbox"), inbox.Options{
		UserID: cfg.Inbox.UserID,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := w.Start(ctx); err != nil {
			log.WithError(err).Error("Inbox watcher stopped")
		}
	}()

	log.WithField("path", cfg.Inbox.Path).Info("Inbox watcher started", "user_id", cfg.Inbox.UserID)

	return &InboxWatcherHandle{Watcher: w, cancel: cancel}, nil
}
