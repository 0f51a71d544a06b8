// Package store persists feedback records and reports. Every backend
// delivers records newest first and normalizes stored documents before
// handing them out.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/lisho/deontolog-ia-feedback/internal/config"
	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a target id does not exist. Bulk operations
// return it when any id is missing and then apply nothing.
var ErrNotFound = errors.New("not found")

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// Store is the persistence collaborator consumed by the services.
type Store interface {
	// Subscribe delivers the current snapshot synchronously and then a fresh
	// snapshot after every successful write. The returned func unsubscribes.
	Subscribe(onData func([]feedback.Record), onError func(error)) (unsubscribe func())

	List(ctx context.Context) ([]feedback.Record, error)
	Get(ctx context.Context, id string) (feedback.Record, error)
	// Create assigns the id and creation timestamp and forces Pendiente.
	Create(ctx context.Context, r feedback.Record) (string, error)
	// Import stores raw documents of any historical shape. Documents that
	// carry an id keep it.
	Import(ctx context.Context, docs []feedback.Document) (int, error)
	Update(ctx context.Context, id string, patch feedback.Patch) error
	BulkUpdate(ctx context.Context, ids []string, patch feedback.Patch) (int, error)
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (int, error)

	CreateReport(ctx context.Context, r feedback.Report) (string, error)
	ListReports(ctx context.Context) ([]feedback.Report, error)
	SubscribeReports(onData func([]feedback.Report), onError func(error)) (unsubscribe func())
	GetReport(ctx context.Context, id string) (feedback.Report, error)
	DeleteReport(ctx context.Context, id string) error
}

// New builds the backend selected by cfg. db is only used by the gorm backend.
func New(cfg config.StoreConfig, db *gorm.DB) (Store, error) {
	switch cfg.Backend {
	case "", "gorm":
		if db == nil {
			return nil, errors.New("gorm store requires a database")
		}
		return NewGormStore(db), nil
	case "memory":
		var seed []feedback.Record
		if cfg.SeedMock {
			seed = MockRecords(25, nowFunc())
		}
		return NewMemoryStore(seed), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}

// unique drops duplicate and empty ids, keeping first-occurrence order.
func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
