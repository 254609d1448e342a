package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daap14/blueprints/internal/api"
	"github.com/daap14/blueprints/internal/api/handler"
	"github.com/daap14/blueprints/internal/auth"
	"github.com/daap14/blueprints/internal/blueprint"
	"github.com/daap14/blueprints/internal/config"
	"github.com/daap14/blueprints/internal/database"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := prepareStore(ctx, cfg, openStore)
	cancel()
	if err != nil {
		slog.Error("failed to prepare blueprint store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer st.close()
	slog.Info("blueprint store ready", "backend", cfg.StoreBackend)

	authService := auth.NewService(cfg.APIKeyHash)
	if !authService.Enabled() {
		slog.Warn("API_KEY_HASH not set; write endpoints are unauthenticated")
	}

	router := api.NewRouter(api.RouterDeps{
		DBPinger:      st.pinger,
		Version:       cfg.Version,
		BlueprintRepo: st.repo,
		AuthService:   authService,
		OpenAPISpec:   api.OpenAPISpec,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting blueprints server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		st.close()
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		st.close()
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(logHandler))
}

// store bundles the repository with the connection it runs on.
type store struct {
	repo   blueprint.Repository
	pinger handler.DBPinger
	close  func()
}

type storeOpener func(ctx context.Context, cfg *config.Config) (*store, error)

// prepareStore opens the configured store and ensures its schema. The store
// is closed again when the schema step fails.
func prepareStore(ctx context.Context, cfg *config.Config, open storeOpener) (*store, error) {
	st, err := open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if err := st.repo.EnsureSchema(ctx); err != nil {
		st.close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return st, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &store{
			repo:   blueprint.NewSQLiteRepository(db.DB()),
			pinger: db,
			close:  db.Close,
		}, nil
	default:
		db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &store{
			repo:   blueprint.NewPostgresRepository(db.Pool()),
			pinger: db,
			close:  db.Close,
		}, nil
	}
}
