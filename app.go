package main

import (
	"context"
	"fmt"
	"log/slog"

	"splitfree/config"
	"splitfree/database"
	"splitfree/logging"
	"splitfree/repository"
)

// setup loads configuration and installs the process logger.
func setup() (*config.Config, *slog.Logger) {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, nil)
	slog.SetDefault(logger)
	return cfg, logger
}

// openStore returns the repositories selected by STORAGE. The PostgreSQL
// schema is migrated before use.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repository.Store, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("⚠️  Using in-memory storage, data is lost on restart")
		return repository.NewMemoryStore(), nil
	case config.StoragePostgres:
		db, err := database.Connect(cfg.DatabaseURL, logging.ParseLevel(cfg.LogLevel) == slog.LevelDebug)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db.WithContext(ctx)); err != nil {
			return nil, err
		}
		return repository.NewGormStore(db), nil
	default:
		return nil, fmt.Errorf("unknown STORAGE %q", cfg.Storage)
	}
}
