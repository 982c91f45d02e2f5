package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/listenupapp/shelf/internal/config"
	"github.com/listenupapp/shelf/internal/logger"
	"github.com/listenupapp/shelf/internal/metadata/googlebooks"
	"github.com/listenupapp/shelf/internal/metadata/itunes"
	"github.com/listenupapp/shelf/internal/metadata/openlibrary"
	"github.com/listenupapp/shelf/internal/resolver"
)

// MetadataClientsHandle owns the provider clients so their rate limiters stop on shutdown.
type MetadataClientsHandle struct {
	GoogleBooks *googlebooks.Client
	OpenLibrary *openlibrary.Client
	ITunes      *itunes.Client
}

// Shutdown implements do.Shutdownable.
func (h *MetadataClientsHandle) Shutdown() error {
	h.GoogleBooks.Close()
	h.OpenLibrary.Close()
	h.ITunes.Close()
	return nil
}

// provider returns the client registered under name.
func (h *MetadataClientsHandle) provider(name string) (resolver.Provider, error) {
	switch name {
	case config.ProviderGoogleBooks:
		return h.GoogleBooks, nil
	case config.ProviderOpenLibrary:
		return h.OpenLibrary, nil
	case config.ProviderITunes:
		return h.ITunes, nil
	default:
		return nil, fmt.Errorf("unknown metadata provider %q", name)
	}
}

// ProvideMetadataClients provides every metadata provider client.
func ProvideMetadataClients(i do.Injector) (*MetadataClientsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var gbOpts []googlebooks.Option
	if cfg.Resolver.GoogleBooksAPIKey != "" {
		gbOpts = append(gbOpts, googlebooks.WithAPIKey(cfg.Resolver.GoogleBooksAPIKey))
	}

	return &MetadataClientsHandle{
		GoogleBooks: googlebooks.New(log.ForComponent("googlebooks"), gbOpts...),
		OpenLibrary: openlibrary.New(log.ForComponent("openlibrary")),
		ITunes:      itunes.New(log.ForComponent("itunes")),
	}, nil
}

// ProvideResolver provides the metadata resolver, routing ISBN and title keys to the configured providers.
func ProvideResolver(i do.Injector) (*resolver.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	clients := do.MustInvoke[*MetadataClientsHandle](i)

	isbn, err := clients.provider(cfg.Resolver.ISBNProvider)
	if err != nil {
		return nil, err
	}
	title, err := clients.provider(cfg.Resolver.TitleProvider)
	if err != nil {
		return nil, err
	}

	log.Info("Metadata resolver ready",
		"isbn_provider", isbn.Name(),
		"title_provider", title.Name(),
		"timeout", cfg.Resolver.Timeout,
	)

	return resolver.New(resolver.Options{
		ISBN:     isbn,
		Title:    title,
		Timeout:  cfg.Resolver.Timeout,
		CacheTTL: cfg.Resolver.CacheTTL,
	}, log.ForComponent("resolver")), nil
}
