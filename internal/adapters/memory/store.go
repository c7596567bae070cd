// Package memory provides process-local fallbacks for the storage ports.
// They are used when Valkey or Postgres are not configured, and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/pkg/geospatial"
)

// Store implements ports.KeyValueStore in memory.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	s.mu.Lock()
	s.data[key] = v
	s.mu.Unlock()
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// MapItemRepo implements ports.MapItemRepository in memory.
type MapItemRepo struct {
	mu    sync.Mutex
	items []domain.MapItem
}

// NewMapItemRepo creates an empty MapItemRepo.
func NewMapItemRepo() *MapItemRepo {
	return &MapItemRepo{}
}

func (r *MapItemRepo) Insert(ctx context.Context, item *domain.MapItem) error {
	r.mu.Lock()
	r.items = append(r.items, *item)
	r.mu.Unlock()
	return nil
}

func (r *MapItemRepo) InsertBatch(ctx context.Context, items []domain.MapItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{}, len(r.items))
	for _, it := range r.items {
		seen[it.ID] = struct{}{}
	}
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		r.items = append(r.items, it)
	}
	return nil
}

func (r *MapItemRepo) FindWithin(ctx context.Context, vp domain.Viewport) ([]domain.MapItem, error) {
	if err := vp.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.MapItem
	for _, it := range r.items {
		if geospatial.Haversine(vp.Center.Lat, vp.Center.Lon, it.Coordinate.Lat, it.Coordinate.Lon) < vp.Radius {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *MapItemRepo) List(ctx context.Context) ([]domain.MapItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.MapItem, len(r.items))
	copy(out, r.items)
	return out, nil
}

func (r *MapItemRepo) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	r.items = nil
	r.mu.Unlock()
	return nil
}
