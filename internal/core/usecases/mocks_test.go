package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/registry"
)

// --- Mock PokemonSource ---

type mockSource struct {
	mu           sync.Mutex
	calls        map[string]int
	fetchFn      func(ctx context.Context, key string) (*domain.Pokemon, error)
	fetchNamesFn func(ctx context.Context, offset, limit int) ([]string, error)
}

func (m *mockSource) FetchPokemon(ctx context.Context, key string) (*domain.Pokemon, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[key]++
	m.mu.Unlock()

	if m.fetchFn != nil {
		return m.fetchFn(ctx, key)
	}
	return &domain.Pokemon{Name: key}, nil
}

func (m *mockSource) FetchPokemonNames(ctx context.Context, offset, limit int) ([]string, error) {
	if m.fetchNamesFn != nil {
		return m.fetchNamesFn(ctx, offset, limit)
	}
	return nil, nil
}

func (m *mockSource) callCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[key]
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu          sync.Mutex
	placed      []domain.MapItem
	cleared     int
	clearEvents []domain.ItemsCleared
	changes     []domain.FavoriteChange
	placeErr    error
}

func (m *mockPublisher) PublishItemPlaced(ctx context.Context, item *domain.MapItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placed = append(m.placed, *item)
	return m.placeErr
}

func (m *mockPublisher) PublishItemsCleared(ctx context.Context, ev *domain.ItemsCleared) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared++
	m.clearEvents = append(m.clearEvents, *ev)
	return nil
}

func (m *mockPublisher) PublishFavoriteChanged(ctx context.Context, change *domain.FavoriteChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, *change)
	return nil
}

func (m *mockPublisher) PublishBroadcast(ctx context.Context, data []byte) error { return nil }

// --- Mock MapItemRepository ---

type mockMapRepo struct {
	items     []domain.MapItem
	insertErr error
	deleteErr error
	listErr   error
	batches   int
	findCalls int
}

func (m *mockMapRepo) Insert(ctx context.Context, item *domain.MapItem) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.items = append(m.items, *item)
	return nil
}

func (m *mockMapRepo) InsertBatch(ctx context.Context, items []domain.MapItem) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.batches++
	for _, it := range items {
		if !m.has(it.ID) {
			m.items = append(m.items, it)
		}
	}
	return nil
}

func (m *mockMapRepo) has(id string) bool {
	for _, it := range m.items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func (m *mockMapRepo) List(ctx context.Context) ([]domain.MapItem, error) {
	return m.items, m.listErr
}

func (m *mockMapRepo) FindWithin(ctx context.Context, vp domain.Viewport) ([]domain.MapItem, error) {
	m.findCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.MapItem
	for _, it := range m.items {
		if registry.Distance(vp.Center, it.Coordinate) < vp.Radius {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockMapRepo) DeleteAll(ctx context.Context) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.items = nil
	return nil
}
