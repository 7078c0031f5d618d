// Package persistence opens the database selected by configuration.
package persistence

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Shinox-lab/dashboard/internal/common/config"
	"github.com/Shinox-lab/dashboard/internal/common/logger"
	"github.com/Shinox-lab/dashboard/internal/db"
)

// Provide creates the database pool used by repositories.
func Provide(cfg config.DatabaseConfig, log *logger.Logger) (*db.Pool, func() error, error) {
	switch cfg.Driver {
	case "", "sqlite":
		writer, err := db.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		reader, err := db.OpenSQLiteReader(cfg.Path)
		if err != nil {
			_ = writer.Close()
			return nil, nil, err
		}
		pool := db.NewPool(writer, reader)
		if log != nil {
			log.Info("Database initialized", zap.String("db_path", cfg.Path), zap.String("db_driver", "sqlite"))
		}
		cleanup := func() error {
			// refresh planner statistics before closing
			_, _ = writer.Exec("PRAGMA optimize")
			return pool.Close()
		}
		return pool, cleanup, nil
	case "postgres":
		conn, err := db.OpenPostgres(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		pool := db.NewPool(conn, conn)
		if log != nil {
			log.Info("Database initialized", zap.String("db_driver", "postgres"))
		}
		return pool, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
