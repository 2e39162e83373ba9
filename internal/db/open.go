package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sheet-uploader/backend/internal/config"
)

// Open connects to the store selected by cfg.Driver and migrates its schema.
func Open(ctx context.Context, cfg config.DatabaseConfig) (RecordStore, error) {
	var (
		store RecordStore
		err   error
	)

	switch cfg.Driver {
	case config.DriverSQLite, "":
		if err := ensureParent(cfg.Path); err != nil {
			return nil, err
		}
		store, err = NewSQLiteStore(ctx, SQLiteConfig{
			Path:     cfg.Path,
			LogLevel: ParseLogLevel(cfg.LogLevel),
		})
	case config.DriverPostgres:
		store, err = NewPostgresStore(ctx, PostgresConfig{
			DSN:      cfg.DSN,
			LogLevel: ParseLogLevel(cfg.LogLevel),
		})
	case config.DriverDuckDB:
		if err := ensureParent(cfg.Path); err != nil {
			return nil, err
		}
		store, err = NewDuckStore(ctx, DuckDBConfig{
			Path:        cfg.Path,
			Threads:     cfg.DuckDB.Threads,
			MemoryLimit: cfg.DuckDB.MemoryLimit,
		})
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func ensureParent(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}
