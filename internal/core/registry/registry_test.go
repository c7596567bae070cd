package registry_test

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/registry"
	"github.com/samirrijal/pokemap/internal/pkg/geospatial"
)

func item(id string, lat, lon float64) domain.MapItem {
	return domain.MapItem{ID: id, Label: "pikachu", Coordinate: domain.Coordinate{Lat: lat, Lon: lon}}
}

func ids(items []domain.MapItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

// Krakow area fixtures, roughly 1-4 km apart.
var fixtures = []domain.MapItem{
	item("a", 50.049683, 19.944544),
	item("b", 50.061947, 19.936856),
	item("c", 50.054, 19.926),
	item("d", 50.0, 20.0),
	item("e", 50.08, 19.9),
}

func TestRegistry_QueryNilReturnsAllInInsertionOrder(t *testing.T) {
	r := registry.New()
	for _, it := range fixtures {
		require.NoError(t, r.Add(it))
	}

	all, err := r.Query(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(all))
	assert.Equal(t, 5, r.Len())
}

func TestRegistry_QueryIsSubsetOfAll(t *testing.T) {
	r := registry.New()
	for _, it := range fixtures {
		require.NoError(t, r.Add(it))
	}
	all := r.All()

	centers := []domain.Coordinate{{Lat: 50.05, Lon: 19.94}, {Lat: 0, Lon: 0}, {Lat: 50.08, Lon: 19.9}}
	radii := []float64{1, 500, 1500, 5000, 1e7}
	for _, c := range centers {
		for _, radius := range radii {
			visible, err := r.Query(&domain.Viewport{Center: c, Radius: radius})
			require.NoError(t, err)
			assert.Subset(t, ids(all), ids(visible), "center %v radius %v", c, radius)

			// every returned item satisfies the predicate, every omitted one does not
			seen := map[string]bool{}
			for _, v := range visible {
				seen[v.ID] = true
				assert.Less(t, registry.Distance(c, v.Coordinate), radius)
			}
			for _, it := range all {
				if !seen[it.ID] {
					assert.GreaterOrEqual(t, registry.Distance(c, it.Coordinate), radius)
				}
			}
		}
	}
}

func TestRegistry_QueryKeepsInsertionOrderNotDistance(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Add(item("far", 50.0+geospatial.MetersToLatDelta(900), 20.0)))
	require.NoError(t, r.Add(item("near", 50.0+geospatial.MetersToLatDelta(10), 20.0)))

	visible, err := r.Query(&domain.Viewport{Center: domain.Coordinate{Lat: 50, Lon: 20}, Radius: 1000})
	require.NoError(t, err)
	assert.Equal(t, []string{"far", "near"}, ids(visible))
}

func TestRegistry_ItemVisibleAtItsOwnCenter(t *testing.T) {
	r := registry.New()
	for _, it := range fixtures {
		require.NoError(t, r.Add(it))
	}
	for _, it := range fixtures {
		for _, radius := range []float64{1e-9, 0.5, 10} {
			visible, err := r.Query(&domain.Viewport{Center: it.Coordinate, Radius: radius})
			require.NoError(t, err)
			assert.Contains(t, ids(visible), it.ID)
		}
	}
}

func TestRegistry_ZeroRadiusRejected(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Add(item("a", 50, 20)))

	for _, radius := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		visible, err := r.Query(&domain.Viewport{Center: domain.Coordinate{Lat: 50, Lon: 20}, Radius: radius})
		require.ErrorIs(t, err, domain.ErrInvalidArgument, "radius %v", radius)
		assert.Empty(t, visible)
	}
}

func TestRegistry_ExampleSinglePoint(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Add(item("p", 50.0, 20.0)))

	visible, err := r.Query(&domain.Viewport{Center: domain.Coordinate{Lat: 50.0, Lon: 20.0}, Radius: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, ids(visible))

	visible, err = r.Query(&domain.Viewport{Center: domain.Coordinate{Lat: 51.0, Lon: 20.0}, Radius: 1000})
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestRegistry_ExampleTwoItems2kmApart(t *testing.T) {
	first := item("first", 50.0, 20.0)
	second := item("second", 50.0+geospatial.MetersToLatDelta(2000), 20.0)
	require.InDelta(t, 2000, registry.Distance(first.Coordinate, second.Coordinate), 1e-6)

	r := registry.New()
	require.NoError(t, r.Add(first))
	require.NoError(t, r.Add(second))

	visible, err := r.Query(&domain.Viewport{Center: first.Coordinate, Radius: 1000})
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, ids(visible))
}

func TestRegistry_QueryIsIdempotent(t *testing.T) {
	r := registry.New()
	for _, it := range fixtures {
		require.NoError(t, r.Add(it))
	}
	vp := &domain.Viewport{Center: domain.Coordinate{Lat: 50.05, Lon: 19.94}, Radius: 2000}

	first, err := r.Query(vp)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := r.Query(vp)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRegistry_QueryDoesNotExposeInternalSlice(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Add(item("a", 50, 20)))

	all, err := r.Query(nil)
	require.NoError(t, err)
	all[0].Label = "mutated"

	again := r.All()
	assert.Equal(t, "pikachu", again[0].Label)
}

func TestRegistry_AddRejectsDuplicateID(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Add(item("a", 50, 20)))

	err := r.Add(item("a", 10, 10))
	require.ErrorIs(t, err, domain.ErrDuplicateID)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 50.0, r.All()[0].Coordinate.Lat)
}

func TestRegistry_SameCoordinateDifferentIDs(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Add(item("a", 50, 20)))
	require.NoError(t, r.Add(item("b", 50, 20)))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_AddRejectsInvalidItems(t *testing.T) {
	tests := []struct {
		name string
		item domain.MapItem
	}{
		{"empty id", item("", 50, 20)},
		{"blank id", item("   ", 50, 20)},
		{"nan lat", item("x", math.NaN(), 20)},
		{"inf lon", item("x", 50, math.Inf(-1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := registry.New()
			require.ErrorIs(t, r.Add(tt.item), domain.ErrInvalidArgument)
			assert.Zero(t, r.Len())
		})
	}
}

func TestRegistry_QueryRejectsNonFiniteCenter(t *testing.T) {
	r := registry.New()
	_, err := r.Query(&domain.Viewport{Center: domain.Coordinate{Lat: math.NaN(), Lon: 0}, Radius: 10})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRegistry_Clear(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Add(item("a", 50, 20)))
	r.Clear()

	assert.Zero(t, r.Len())
	// ids are released as well
	require.NoError(t, r.Add(item("a", 50, 20)))
}

func TestDistance_SymmetryAndIdentity(t *testing.T) {
	for _, a := range fixtures {
		assert.Zero(t, registry.Distance(a.Coordinate, a.Coordinate))
		for _, b := range fixtures {
			assert.InDelta(t, registry.Distance(a.Coordinate, b.Coordinate), registry.Distance(b.Coordinate, a.Coordinate), 1e-6)
		}
	}
}

func TestLocked_ConcurrentAddAndQuery(t *testing.T) {
	l := registry.NewLocked()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, l.Add(item(fmt.Sprintf("item-%d", i), 50, 20)))
		}(i)
		go func() {
			defer wg.Done()
			_, err := l.Query(&domain.Viewport{Center: domain.Coordinate{Lat: 50, Lon: 20}, Radius: 100})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, l.Len())
	assert.Len(t, l.All(), 50)
	l.Clear()
	assert.Zero(t, l.Len())
}
