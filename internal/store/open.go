package store

import (
	"context"
	"log/slog"

	"github.com/INF-UCT/code-lens/internal/config"
	"github.com/INF-UCT/code-lens/internal/foundation/errors"
)

// Open creates the store selected by cfg.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		slog.Info("Opening SQLite store", slog.String("dsn", cfg.DSN))
		s, err := NewSQLiteStore(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		slog.Info("Opening Postgres store")
		s, err := NewPostgresStore(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.ConfigError("unsupported database driver").
			WithContext("field", "database.driver").
			WithContext("value", string(cfg.Driver)).
			Build()
	}
}
