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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/stickit/internal/api"
	"github.com/starford/stickit/internal/mcpserver"
	"github.com/starford/stickit/internal/noteservice"
	"github.com/starford/stickit/internal/sse"
	"github.com/starford/stickit/internal/store"
	"github.com/starford/stickit/internal/vault"
)

const (
	changedThrottle = 2 * time.Second
	sseHeartbeat    = 30 * time.Second
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", stdout: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// backend is the store, the optional vault mirror and the service on top.
type backend struct {
	db    *store.DB
	vault *vault.FS
	svc   *noteservice.Service
}

func (b *backend) Close() error {
	return b.db.Close()
}

func openBackend(ctx context.Context, cfg *Config, logger *slog.Logger, svcOpts ...noteservice.Option) (*backend, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	b := &backend{db: db}

	svcOpts = append(svcOpts, noteservice.WithLogger(logger))
	if cfg.Vault.Enabled() {
		if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
			db.Close()
			return nil, fmt.Errorf("create vault dir: %w", err)
		}
		v, err := vault.NewFS(cfg.Vault.Path)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("init vault: %w", err)
		}
		b.vault = v
		svcOpts = append(svcOpts, noteservice.WithVault(v))
	}
	b.svc = noteservice.New(db, svcOpts...)

	if b.vault != nil {
		res, err := b.svc.SyncVault(ctx)
		if err != nil {
			logger.Warn("initial vault sync failed", slog.String("error", err.Error()))
		} else {
			logger.Info("vault synced",
				slog.Int("imported", res.Imported),
				slog.Int("exported", res.Exported),
				slog.Int("failed", res.Failed))
		}
	}
	return b, nil
}

// Run starts the HTTP server, the vault watcher and the SSE broker.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger, logCloser, err := newLogger(cfg.App, app.stdout)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("store_path", cfg.Store.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(changedThrottle, sse.WithHeartbeat(sseHeartbeat))
	defer broker.Close()

	b, err := openBackend(ctx, cfg, logger, noteservice.WithEventCallback(broker.PublishNoteEvent))
	if err != nil {
		return err
	}
	defer b.Close()

	apiRouter := api.NewRouter(b.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, cfg.Render.PreviewLimit)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := b.db.Ping(req.Context()); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start vault watcher.
	if b.vault != nil && cfg.Vault.Watch {
		g.Go(func() error {
			if err := vault.Watch(gCtx, b.vault, b.svc, logger); err != nil {
				logger.Error("vault watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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
		defer signal.Stop(quit)

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

		// A non-nil error cancels gCtx, which also stops the watcher.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout. Logs go to the configured
// log output, never to stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	cfg := app.config

	logger, logCloser, err := newLogger(cfg.App, app.stdout)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	logger.Info("MCP server starting on stdio", slog.String("version", app.version))
	return mcpserver.New(b.svc, app.version).ServeStdio()
}

func writeStatus(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, msg)
}
