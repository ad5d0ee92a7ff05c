// Package main is the entry point for the wizardd session server.
// It wires all dependencies together and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/briefkit/wizard/internal/catalog"
	"github.com/briefkit/wizard/internal/config"
	"github.com/briefkit/wizard/internal/observability"
	"github.com/briefkit/wizard/internal/store"
	"github.com/briefkit/wizard/internal/transport"
	"github.com/briefkit/wizard/internal/wizard"
	"github.com/briefkit/wizard/model"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Step 1: Parse CLI flags.
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	// Step 2: Load configuration.
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	// Step 3: Initialize telemetry (logger, metrics).
	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	metrics := observability.InitMetrics(prometheus.DefaultRegisterer)

	// Step 4: Load and validate the step catalog.
	cat, err := loadCatalog(cfg.Catalog, logger)
	if err != nil {
		logger.Fatal("catalog loading failed", zap.Error(err))
		return 1
	}

	validator := catalog.NewValidator()
	verrs := validator.Validate(cat)
	if len(verrs) > 0 {
		for _, ve := range verrs {
			logger.Error("catalog validation error", zap.String("error", ve.Error()))
		}
		logger.Fatal("catalog validation failed", zap.Int("errors", len(verrs)))
		return 1
	}

	// Step 5: Initialize the session store.
	sessionStore, storeCloser, err := buildSessionStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("session store initialization failed", zap.Error(err))
		return 1
	}

	// Step 6: Build the completion gate.
	gate := wizard.NewCompletionGate(sessionStore, logger)

	// Step 7: Build HTTP router.
	readinessChecks := observability.ReadinessChecks{
		CatalogLoaded: func() bool { return cat.Len() > 0 },
	}
	if hc, ok := sessionStore.(observability.HealthChecker); ok {
		readinessChecks.SessionStore = hc
	}

	var metricsHandler http.Handler
	if cfg.Observability.Metrics.Enabled {
		metricsHandler = observability.Handler()
	}

	router := transport.NewRouter(transport.Dependencies{
		Config:         cfg,
		Logger:         logger,
		Metrics:        metrics,
		Catalog:        cat,
		Store:          sessionStore,
		Gate:           gate,
		HealthHandler:  observability.HandleHealth(),
		ReadyHandler:   observability.HandleReady(readinessChecks),
		MetricsHandler: metricsHandler,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Step 8: Start HTTP server.
	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("catalog_version", cat.Version),
		zap.Int("steps", cat.Len()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	// Graceful shutdown sequence.
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new connections and drain in-flight requests.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if storeCloser != nil {
		storeCloser()
	}

	logger.Info("shutdown complete")
	return 0
}

// loadConfig reads the config file, falling back to defaults when the default
// path does not exist so the server runs out of the box.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == "config.yaml" {
		return config.Defaults(), nil
	}
	return config.Load(path)
}

// loadCatalog loads the step catalog from the configured file, or the built-in
// catalog when no file is configured.
func loadCatalog(cfg config.CatalogConfig, logger *zap.Logger) (model.Catalog, error) {
	if cfg.File == "" {
		logger.Info("using built-in step catalog")
		return catalog.Default(), nil
	}
	loader := catalog.NewLoader()
	cat, err := loader.LoadFile(cfg.File)
	if err != nil {
		return model.Catalog{}, err
	}
	logger.Info("catalog loaded",
		zap.String("file", cfg.File),
		zap.String("version", cat.Version),
		zap.Int("steps", cat.Len()),
	)
	return cat, nil
}

// buildSessionStore creates the session store based on config.
func buildSessionStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (store.SessionStore, func(), error) {
	switch cfg.Driver {
	case "memory", "":
		logger.Info("using in-memory session store")
		return store.NewMemoryStore(), nil, nil
	case "postgres":
		dsn := os.Getenv(cfg.DSNEnv)
		if dsn == "" {
			return nil, nil, fmt.Errorf("session store: %s environment variable not set", cfg.DSNEnv)
		}

		poolCfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("session store: parse DSN: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("session store: connect: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("session store: ping: %w", err)
		}

		return store.NewPgStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session store driver: %q", cfg.Driver)
	}
}
