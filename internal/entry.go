// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/mossdal/loom/internal/api"
	"github.com/mossdal/loom/internal/archive"
	"github.com/mossdal/loom/internal/render"
	"github.com/mossdal/loom/internal/sse"
	"github.com/mossdal/loom/internal/watch"
	"github.com/mossdal/loom/internal/weave"
)

// Run starts the documentation server with the given options. It weaves
// the source tree into Markdown, renders the HTML site, archives the
// woven documents, and rebuilds on source changes.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("source", cfg.Workspace.Source),
		slog.String("docs", cfg.Workspace.Docs),
		slog.String("site", cfg.Workspace.Site),
		slog.String("archive_path", cfg.Archive.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	for _, dir := range []string{cfg.Workspace.Source, cfg.Workspace.Docs, cfg.Workspace.Site} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create workspace dir %s: %w", dir, err)
		}
	}

	// Open the document archive.
	store, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer store.Close()

	rebuild := func() error {
		woven, err := weave.ConvertTree(cfg.Workspace.Source, cfg.Workspace.Docs, logger)
		if err != nil {
			return fmt.Errorf("weave: %w", err)
		}
		if _, err := render.Tree(cfg.Workspace.Docs, cfg.Workspace.Site, cfg.Render.CSS, logger); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		if err := store.SaveFiles(woven); err != nil {
			return fmt.Errorf("archive: %w", err)
		}
		return nil
	}

	// Initial build.
	if err := rebuild(); err != nil {
		logger.Warn("initial build failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Build API router.
	apiRouter := api.NewRouter(store, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Rendered site (unauthenticated, read-only).
	r.Handle("/site/*", http.StripPrefix("/site/", http.FileServer(http.Dir(cfg.Workspace.Site))))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the source tree and rebuild on change.
	g.Go(func() error {
		return watch.Tree(gCtx, cfg.Workspace.Source, logger, func(changed []string) {
			if err := rebuild(); err != nil {
				logger.Warn("rebuild failed", slog.String("error", err.Error()))
				return
			}
			for _, p := range changed {
				broker.PublishDocEvent("updated", p)
			}
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
