package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Shinox-lab/dashboard/internal/db"
	"github.com/Shinox-lab/dashboard/internal/db/dialect"
	"github.com/Shinox-lab/dashboard/internal/settings/models"
)

type sqlRepository struct {
	db *sqlx.DB // writer
	ro *sqlx.DB // reader
}

var _ Repository = (*sqlRepository)(nil)

// Provide creates the settings repository on the shared pool.
func Provide(pool *db.Pool) (Repository, func() error, error) {
	repo, err := newSQLRepository(pool.Writer(), pool.Reader())
	if err != nil {
		return nil, nil, err
	}
	return repo, repo.Close, nil
}

func newSQLRepository(writer, reader *sqlx.DB) (*sqlRepository, error) {
	repo := &sqlRepository{db: writer, ro: reader}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return repo, nil
}

func (r *sqlRepository) initSchema() error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS dashboard_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT '{}',
		updated_at %s NOT NULL
	);
	`, dialect.TimestampType(r.db.DriverName()))
	_, err := r.db.Exec(schema)
	return err
}

// Close is a no-op; the pool belongs to the persistence provider.
func (r *sqlRepository) Close() error {
	return nil
}

func (r *sqlRepository) Get(ctx context.Context, key string) (*models.Record, error) {
	var rec models.Record
	err := r.ro.GetContext(ctx, &rec, r.ro.Rebind(`
		SELECT key, value, updated_at FROM dashboard_settings WHERE key = ?
	`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *sqlRepository) Save(ctx context.Context, record *models.Record) error {
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}
	query := r.db.Rebind(dialect.Upsert("dashboard_settings", "key", "value", "updated_at"))
	_, err := r.db.ExecContext(ctx, query, record.Key, record.Value, record.UpdatedAt)
	return err
}

func (r *sqlRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM dashboard_settings WHERE key = ?`), key)
	return err
}
