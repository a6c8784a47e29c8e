package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sagelabs/widgetlab/internal/boundary"
	"github.com/sagelabs/widgetlab/internal/catalog"
	"github.com/sagelabs/widgetlab/internal/console"
	"github.com/sagelabs/widgetlab/internal/ctxlog"
	"github.com/sagelabs/widgetlab/internal/preview"
	"github.com/sagelabs/widgetlab/internal/resolve"
	"github.com/sagelabs/widgetlab/internal/tree"
)

const shutdownTimeout = 5 * time.Second

// Run serves the admin console until ctx is cancelled. The catalog directory
// is hot-reloaded when watching is enabled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	rt, err := a.buildRuntime(ctx)
	if err != nil {
		return err
	}

	if a.config.WatchCatalog && a.config.CatalogDir != "" {
		feed, err := catalog.Watch(ctx, a.config.CatalogDir)
		if err != nil {
			return fmt.Errorf("watch widget catalog: %w", err)
		}
		go func() {
			for cat := range feed {
				rt.resolver.SetCatalog(cat)
			}
		}()
		a.logger.Info("Catalog hot-reload enabled.", "dir", a.config.CatalogDir)
	}

	server := console.NewServer(a.logger, rt.registry, rt.resolver, a.config.QuietFunctions)
	httpServer := &http.Server{
		Addr:    a.config.ListenAddr,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Console listening.", "addr", a.config.ListenAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("console server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down console.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("console shutdown: %w", err)
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// RenderPreview resolves and renders one widget as styled terminal output.
func (a *App) RenderPreview(ctx context.Context, widgetID string) (string, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	rt, err := a.buildRuntime(ctx)
	if err != nil {
		return "", err
	}

	out := boundary.Protect(func() (*tree.Node, error) {
		return rt.resolver.Render(ctx, resolve.Mount{WidgetID: widgetID})
	})
	return preview.New().RenderOutcome(widgetID, out, a.config.ShowRawErrors), nil
}
