package store

import (
	"context"
	"sync"
	"time"

	"github.com/Shinox-lab/dashboard/internal/settings/models"
)

// MemoryRepository keeps settings in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]models.Record
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]models.Record)}
}

func (r *MemoryRepository) Get(ctx context.Context, key string) (*models.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (r *MemoryRepository) Save(ctx context.Context, record *models.Record) error {
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	r.records[record.Key] = *record
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	delete(r.records, key)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
