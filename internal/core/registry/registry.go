// Package registry holds placed map items and answers viewport queries.
//
// Queries are a linear scan over every item. That is fine for the handful of
// markers a single map holds; a larger deployment would want a spatial index.
package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/pkg/geospatial"
)

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b domain.Coordinate) float64 {
	return geospatial.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Registry is the authoritative, insertion-ordered collection of map items.
// It is not safe for concurrent use; see Locked.
type Registry struct {
	items []domain.MapItem
	ids   map[string]struct{}
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{ids: make(map[string]struct{})}
}

// Add appends item. Duplicate ids are rejected with domain.ErrDuplicateID and
// leave the registry unchanged.
func (r *Registry) Add(item domain.MapItem) error {
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("%w: item id is required", domain.ErrInvalidArgument)
	}
	if err := item.Coordinate.Validate(); err != nil {
		return err
	}
	if _, exists := r.ids[item.ID]; exists {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateID, item.ID)
	}
	r.ids[item.ID] = struct{}{}
	r.items = append(r.items, item)
	return nil
}

// Query returns the items strictly closer than vp.Radius to vp.Center, in
// insertion order. A nil viewport returns every item.
func (r *Registry) Query(vp *domain.Viewport) ([]domain.MapItem, error) {
	if vp == nil {
		return r.All(), nil
	}
	if err := vp.Validate(); err != nil {
		return nil, err
	}

	visible := make([]domain.MapItem, 0, len(r.items))
	for _, item := range r.items {
		if Distance(vp.Center, item.Coordinate) < vp.Radius {
			visible = append(visible, item)
		}
	}
	return visible, nil
}

// All returns a copy of every item in insertion order.
func (r *Registry) All() []domain.MapItem {
	out := make([]domain.MapItem, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of registered items.
func (r *Registry) Len() int {
	return len(r.items)
}

// Clear removes every item.
func (r *Registry) Clear() {
	r.items = nil
	r.ids = make(map[string]struct{})
}

// Locked guards a Registry with a RWMutex for concurrent callers.
type Locked struct {
	mu  sync.RWMutex
	reg *Registry
}

// NewLocked creates an empty, concurrency-safe registry.
func NewLocked() *Locked {
	return &Locked{reg: New()}
}

// Add registers item under the write lock.
func (l *Locked) Add(item domain.MapItem) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reg.Add(item)
}

// Query returns the items strictly inside vp, or every item when vp is nil.
func (l *Locked) Query(vp *domain.Viewport) ([]domain.MapItem, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reg.Query(vp)
}

// All returns a copy of every item in insertion order.
func (l *Locked) All() []domain.MapItem {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reg.All()
}

// Len returns the number of items.
func (l *Locked) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reg.Len()
}

// Clear removes every item.
func (l *Locked) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reg.Clear()
}
