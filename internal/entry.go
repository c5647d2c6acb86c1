// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/travelmate/internal/api"
	"github.com/starford/travelmate/internal/apperr"
	"github.com/starford/travelmate/internal/mcpserver"
	"github.com/starford/travelmate/internal/models"
	"github.com/starford/travelmate/internal/planner"
	"github.com/starford/travelmate/internal/prefstore"
	"github.com/starford/travelmate/internal/provider"
	"github.com/starford/travelmate/internal/sse"
	"github.com/starford/travelmate/internal/storage"
	"github.com/starford/travelmate/internal/tripstore"
)

// components is everything the surfaces share, built once per command.
type components struct {
	cfg    *Config
	logger *slog.Logger
	port   storage.Port
	trips  *tripstore.Store
	prefs  *prefstore.Store
	svc    *planner.Service

	closePort func() error
}

func (c *components) close() {
	c.prefs.Close()
	if err := c.closePort(); err != nil {
		c.logger.Warn("close storage", slog.String("error", err.Error()))
	}
}

func bootstrap(opts []Option) (*components, error) {
	app := newApplication(opts)
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("storage_path", cfg.Storage.Path),
		slog.Bool("storage_watch", cfg.Storage.WatchEnabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	port, closePort, err := storage.Open(cfg.Storage.Options())
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	tripOpts := []tripstore.Option{
		tripstore.WithLogger(logger),
		tripstore.WithRecentLimit(cfg.Trips.RecentLimit),
	}
	if cfg.Trips.Strict {
		tripOpts = append(tripOpts, tripstore.WithValidator(tripstore.Validate))
	}
	trips := tripstore.New(port, tripOpts...)

	prefs := prefstore.New(port,
		prefstore.WithLogger(logger),
		prefstore.WithSystemTheme(prefstore.EnvThemeDetector{Override: cfg.Preferences.SystemTheme}),
		prefstore.WithThemeApplier(prefstore.ThemeApplierFunc(func(t models.Theme) {
			logger.Info("theme applied", slog.String("theme", string(t)))
		})),
	)

	p := app.provider
	if p == nil {
		p = provider.NewMock(cfg.Provider.Latency.Std())
	}

	return &components{
		cfg:       cfg,
		logger:    logger,
		port:      port,
		trips:     trips,
		prefs:     prefs,
		svc:       planner.New(port, trips, prefs, p, logger),
		closePort: closePort,
	}, nil
}

// reload routes an external change of a persisted key to the store that owns it.
func (c *components) reload(key string) {
	c.logger.Debug("external change", slog.String("key", key))
	switch key {
	case storage.KeyTrips:
		c.trips.Reload()
	case storage.KeySettings, storage.KeyTheme:
		c.prefs.Reload()
	}
}

// Run starts the HTTP API with the given options.
func Run(ctx context.Context, opts ...Option) error {
	c, err := bootstrap(opts)
	if err != nil {
		return err
	}
	defer c.close()

	cfg, logger := c.cfg, c.logger

	// SSE broker fed by the stores.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	stopFeed := sse.Feed(broker, c.trips.Trips(), c.prefs.Preferences())
	defer stopFeed()

	apiRouter := api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := c.port.Get(storage.KeyTrips); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"storage unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
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

	// Reload stores when another process edits the data directory.
	if cfg.Storage.WatchEnabled() {
		g.Go(func() error {
			if err := storage.Watch(gCtx, cfg.Storage.Path, logger, c.reload); err != nil {
				logger.Warn("watcher stopped", slog.String("error", err.Error()))
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

		// Close SSE streams first so Shutdown does not wait on them.
		broker.Close()

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

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(_ context.Context, opts ...Option) error {
	c, err := bootstrap(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	defer c.close()

	c.logger.Info("MCP server starting on stdio")
	if err := mcpserver.New(c.svc).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// RunExport writes the data-export document to w.
func RunExport(_ context.Context, w io.Writer, opts ...Option) error {
	c, err := bootstrap(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.svc.Export().Write(w); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
