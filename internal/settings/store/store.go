package store

import (
	"context"
	"errors"

	"github.com/Shinox-lab/dashboard/internal/settings/models"
)

// DefaultKey identifies the single settings document of a squadwatch install.
const DefaultKey = "shinox-settings"

// ErrNotFound is returned when no settings have been stored.
var ErrNotFound = errors.New("settings not found")

type Repository interface {
	Get(ctx context.Context, key string) (*models.Record, error)
	Save(ctx context.Context, record *models.Record) error
	Delete(ctx context.Context, key string) error
	Close() error
}
