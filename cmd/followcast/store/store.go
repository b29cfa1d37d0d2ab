// Package store builds the storage backend selected by the followcast config.
//
// Supported backends:
//
//   - memory: process-local, lost on restart. Useful for demos and tests.
//   - sqlite: a single database file (default).
//   - postgres: a shared PostgreSQL database; the schema is created on start.
//   - redis: a Redis server, keyed under a configurable prefix.
//
// Initialization is fail-fast: New verifies connectivity with Ping and exits
// the process if the backend cannot be reached.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/HatiCode/followcast/cmd/followcast/config"
	"github.com/HatiCode/followcast/pkg/storage"
)

const initTimeout = 5 * time.Second

// New opens the configured backend and exits with status 1 on failure.
// The returned store is never nil.
func New(cfg *config.Config, logger *slog.Logger) storage.Store {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	st, err := Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "storage", cfg.Storage, "error", err)
		os.Exit(1)
	}
	return st
}

// Open opens and pings the configured backend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	var (
		st  storage.Store
		err error
	)

	switch cfg.Storage {
	case "memory":
		logger.Info("initializing in-memory storage")
		st = storage.NewMemoryStore()

	case "sqlite":
		logger.Info("initializing sqlite storage", "path", cfg.SQLitePath)
		st, err = storage.NewSQLiteStore(cfg.SQLitePath)

	case "postgres":
		logger.Info("initializing postgres storage")
		var pg *storage.PostgresStore
		pg, err = storage.OpenPostgres(ctx, cfg.DatabaseURL)
		if err == nil {
			if err = pg.EnsureSchema(ctx); err != nil {
				pg.Close()
			}
		}
		st = pg

	case "redis":
		logger.Info("initializing redis storage",
			"addr", cfg.RedisAddr,
			"db", cfg.RedisDB,
			"prefix", cfg.RedisPrefix,
		)
		st = storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)

	default:
		return nil, fmt.Errorf("invalid storage type %q", cfg.Storage)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Ping(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("%s health check failed: %w", cfg.Storage, err)
	}
	logger.Info("storage initialized successfully", "storage", cfg.Storage)

	return st, nil
}
