package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/sagelabs/widgetlab/internal/catalog"
	"github.com/sagelabs/widgetlab/internal/ctxlog"
	"github.com/sagelabs/widgetlab/internal/docstore"
	"github.com/sagelabs/widgetlab/internal/registry"
	"github.com/sagelabs/widgetlab/internal/resolve"
	"github.com/sagelabs/widgetlab/internal/scope"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	store  docstore.Store
}

// New is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and document store.
func New(outW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	var store docstore.Store
	if cfg.StorePath != "" {
		sq, err := docstore.OpenSQLite(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open widget store: %w", err)
		}
		logger.Debug("SQLite widget store opened.", "path", cfg.StorePath)
		store = sq
	} else {
		logger.Debug("Using in-memory widget store; registry state is not persisted.")
		store = docstore.NewMemory()
	}

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		store:  store,
	}, nil
}

// Logger returns the application's logger. Primarily for testing.
func (a *App) Logger() *slog.Logger { return a.logger }

// Close releases the document store.
func (a *App) Close() error { return a.store.Close() }

// runtime is the assembled core: the registry over the store and the
// resolver over the catalog, shared by serve, preview and widgets.
type runtime struct {
	registry *registry.Registry
	resolver *resolve.Resolver
}

// buildRuntime loads the catalog once and wires the resolver. The registry's
// snapshot feed lives until ctx is cancelled.
func (a *App) buildRuntime(ctx context.Context) (*runtime, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	cat := catalog.Empty()
	if a.config.CatalogDir != "" {
		loaded, err := catalog.Load(a.config.CatalogDir)
		if err != nil {
			return nil, fmt.Errorf("load widget catalog: %w", err)
		}
		cat = loaded
	}

	reg, err := registry.New(ctx, a.store)
	if err != nil {
		return nil, fmt.Errorf("start widget registry: %w", err)
	}

	resolver := resolve.New(reg, scope.NewBuilder(), cat, resolve.Options{
		Bypass:        a.config.Bypass,
		ForceTemplate: a.config.ForceTemplate,
		ShowRawErrors: a.config.ShowRawErrors,
	})
	registerNativeComponents(resolver)
	a.logger.Debug("Resolver wired.",
		"catalog_widgets", len(cat.Widgets()),
		"bypass", len(a.config.Bypass),
		"force_template", len(a.config.ForceTemplate))

	return &runtime{registry: reg, resolver: resolver}, nil
}

// ListWidgets returns the grouped widget listing.
func (a *App) ListWidgets(ctx context.Context) ([]resolve.Group, error) {
	rt, err := a.buildRuntime(ctx)
	if err != nil {
		return nil, err
	}
	return rt.resolver.Listing(), nil
}
