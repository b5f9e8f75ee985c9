package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/mediabundle/backend/internal/config"
	"github.com/mediabundle/backend/internal/db"
	"github.com/mediabundle/backend/internal/handlers"
	"github.com/mediabundle/backend/internal/httpserver"
	"github.com/mediabundle/backend/internal/logging"
	"github.com/mediabundle/backend/internal/middleware"
	"github.com/mediabundle/backend/internal/repositories"
)

// Run bootstraps the media bundle backend.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	store, err := openRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.close()

	deps, cleanup, err := buildDependencies(ctx, store.repo, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			logger.Warn("stop thumbnail workers", "error", err)
		}
	}()
	deps.HealthCheck = store.ping

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)

	handler := middleware.RealIP(cfg.TrustedProxies)(middleware.RequestLogger(logger)(mux))

	srv := httpserver.New(cfg.AppPort, handler, logger)
	return srv.Run(ctx, nil)
}

type repository struct {
	repo  repositories.MediaRepository
	ping  func(ctx context.Context) error
	close func()
}

// openRepository selects SQLite for sqlite:// URLs and PostgreSQL otherwise.
func openRepository(ctx context.Context, databaseURL string) (repository, error) {
	if strings.HasPrefix(databaseURL, repositories.SQLiteScheme) {
		sqlDB, err := repositories.OpenSQLite(databaseURL)
		if err != nil {
			return repository{}, err
		}
		repo := repositories.NewSQLiteMediaRepository(sqlDB)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = sqlDB.Close()
			return repository{}, err
		}
		return repository{
			repo:  repo,
			ping:  sqlDB.PingContext,
			close: func() { _ = sqlDB.Close() },
		}, nil
	}

	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return repository{}, err
	}
	return repository{
		repo:  repositories.NewPostgresMediaRepository(pool),
		ping:  pool.Ping,
		close: pool.Close,
	}, nil
}
