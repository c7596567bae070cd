// Package viewport implements the caller-side re-query policy for map views.
package viewport

import (
	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/registry"
)

// DefaultThreshold is how far (meters) the center must move before the
// visible set is recomputed.
const DefaultThreshold = 1000.0

// Debouncer remembers the last committed map center and only commits a new
// one once the map has moved at least Threshold meters away from it.
// The zero value uses DefaultThreshold.
type Debouncer struct {
	Threshold float64

	center    domain.Coordinate
	committed bool
}

// NewDebouncer creates a Debouncer. A non-positive threshold falls back to
// DefaultThreshold.
func NewDebouncer(threshold float64) *Debouncer {
	return &Debouncer{Threshold: threshold}
}

func (d *Debouncer) threshold() float64 {
	if d.Threshold <= 0 {
		return DefaultThreshold
	}
	return d.Threshold
}

// Update offers a new center. It returns the committed center and whether
// it changed. The first call always commits.
func (d *Debouncer) Update(center domain.Coordinate) (domain.Coordinate, bool) {
	if !d.committed || registry.Distance(d.center, center) >= d.threshold() {
		d.center = center
		d.committed = true
		return center, true
	}
	return d.center, false
}

// Center returns the committed center, if any.
func (d *Debouncer) Center() (domain.Coordinate, bool) {
	return d.center, d.committed
}

// Viewport builds a viewport around the committed center. It returns nil
// until a center has been committed, which makes every item visible.
func (d *Debouncer) Viewport(radius float64) *domain.Viewport {
	if !d.committed {
		return nil
	}
	return &domain.Viewport{Center: d.center, Radius: radius}
}

// Reset forgets the committed center.
func (d *Debouncer) Reset() {
	d.center = domain.Coordinate{}
	d.committed = false
}
