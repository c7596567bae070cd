package ports

import (
	"context"

	"github.com/samirrijal/pokemap/internal/core/domain"
)

// MapItemRepository persists placed map items.
type MapItemRepository interface {
	Insert(ctx context.Context, item *domain.MapItem) error
	// InsertBatch stores items, skipping ids that already exist.
	InsertBatch(ctx context.Context, items []domain.MapItem) error
	// List returns every stored item in insertion order.
	List(ctx context.Context) ([]domain.MapItem, error)
	FindWithin(ctx context.Context, vp domain.Viewport) ([]domain.MapItem, error)
	DeleteAll(ctx context.Context) error
}

// KeyValueStore is device-style persistent storage for small JSON values.
type KeyValueStore interface {
	// Get returns domain.ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}
