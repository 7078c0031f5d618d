package db

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/Shinox-lab/dashboard/internal/db/dialect"
)

const (
	defaultMaxConns = 10
	defaultMinConns = 2
)

// OpenPostgres opens a PostgreSQL pool through the pgx stdlib driver.
func OpenPostgres(dsn string) (*sqlx.DB, error) {
	conn, err := sqlx.Open(dialect.PGX, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}
	conn.SetMaxOpenConns(defaultMaxConns)
	conn.SetMaxIdleConns(defaultMinConns)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}
	return conn, nil
}
