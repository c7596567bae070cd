// Package favorite holds the single, process-wide favorite selection.
package favorite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/ports"
)

// DefaultKey is the storage key the favorite is persisted under.
const DefaultKey = "favorite"

// Listener is called after every change. name is nil when the favorite was
// cleared. Listeners may call Get but must not call Set.
type Listener func(name *string)

// Cell is a write-through state cell backed by a KeyValueStore. It is
// loaded once at startup; afterwards every reader sees the in-memory value.
type Cell struct {
	store ports.KeyValueStore
	key   string

	// writeMu serializes Set from the store write through listener dispatch,
	// so listeners observe changes in commit order.
	writeMu sync.Mutex

	mu        sync.RWMutex
	name      *string
	listeners map[int]Listener
	nextID    int
}

// Load creates a Cell and initialises it from the store. A missing key
// yields an empty cell. Values are stored JSON-encoded.
func Load(ctx context.Context, store ports.KeyValueStore, key string) (*Cell, error) {
	if key == "" {
		key = DefaultKey
	}
	c := &Cell{store: store, key: key, listeners: make(map[int]Listener)}

	data, err := store.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load favorite: %w", err)
	}

	var name *string
	if err := json.Unmarshal(data, &name); err != nil {
		return nil, fmt.Errorf("decode favorite: %w", err)
	}
	if name != nil && *name == "" {
		name = nil
	}
	c.name = name
	return c, nil
}

// Get returns the current favorite.
func (c *Cell) Get() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.name == nil {
		return "", false
	}
	return *c.name, true
}

// Set replaces the favorite. nil (or an empty name) clears it. Setting the
// current value is a no-op. The store is written first; if that fails the
// cell keeps its old value.
// Concurrent calls are serialized and notify listeners in commit order.
func (c *Cell) Set(ctx context.Context, name *string) error {
	if name != nil && *name == "" {
		name = nil
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	if equal(c.name, name) {
		c.mu.Unlock()
		return nil
	}

	if name == nil {
		if err := c.store.Remove(ctx, c.key); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("remove favorite: %w", err)
		}
	} else {
		data, err := json.Marshal(*name)
		if err != nil {
			c.mu.Unlock()
			return fmt.Errorf("encode favorite: %w", err)
		}
		if err := c.store.Set(ctx, c.key, data); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("store favorite: %w", err)
		}
	}

	if name != nil {
		v := *name
		name = &v
	}
	c.name = name
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(name)
	}
	return nil
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (c *Cell) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func equal(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
