// Package dialect provides SQL fragment helpers for SQLite/PostgreSQL portability.
package dialect

import (
	"fmt"
	"strings"
)

const (
	SQLite3 = "sqlite3"
	PGX     = "pgx"
)

// IsPostgres returns true if the driver is PostgreSQL (pgx).
func IsPostgres(driver string) bool {
	return driver == PGX
}

// TimestampType returns the column type for timestamps.
//
//	SQLite:   DATETIME
//	Postgres: TIMESTAMPTZ
func TimestampType(driver string) string {
	if IsPostgres(driver) {
		return "TIMESTAMPTZ"
	}
	return "DATETIME"
}

// Upsert returns an INSERT that overwrites the non-key columns on conflict.
// Placeholders are '?' and must be rebound by the caller. Both SQLite (3.24+)
// and PostgreSQL accept the ON CONFLICT ... DO UPDATE form.
func Upsert(table, key string, columns ...string) string {
	all := append([]string{key}, columns...)
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(all)), ", ")
	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		table, strings.Join(all, ", "), marks, key, strings.Join(sets, ", "))
}
