package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/pm-tracker/internal/config"
	"github.com/sakif/pm-tracker/internal/repository"
	"github.com/sakif/pm-tracker/internal/repository/postgres"
	"github.com/sakif/pm-tracker/internal/repository/sqlite"
)

// OpenStore opens the backend named by cfg.Driver. With AutoMigrate set,
// pending Postgres migrations are applied first; SQLite always creates its
// schema on open.
func OpenStore(ctx context.Context, cfg config.Database, logger *slog.Logger) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if cfg.Path != ":memory:" {
			dir := filepath.Dir(cfg.Path)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("database opened", slog.String("driver", cfg.Driver), slog.String("path", cfg.Path))
		return db, nil

	case config.DriverPostgres:
		pg := cfg.Postgres()
		if cfg.AutoMigrate {
			if err := postgres.MigrateUp(pg.DSN()); err != nil {
				return nil, err
			}
			logger.Info("migrations applied")
		}
		db, err := postgres.New(ctx, pg)
		if err != nil {
			return nil, err
		}
		logger.Info("database opened",
			slog.String("driver", cfg.Driver),
			slog.String("host", cfg.Host),
			slog.String("name", cfg.Name),
		)
		return db, nil
	}

	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
