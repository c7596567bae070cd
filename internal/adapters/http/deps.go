package http

import (
	"github.com/nats-io/nats.go"
	"github.com/samirrijal/pokemap/internal/adapters/postgres"
	"github.com/samirrijal/pokemap/internal/adapters/valkey"
	"github.com/samirrijal/pokemap/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
// DB, NATS, and Cache are optional and may be nil.
type Dependencies struct {
	Pokemon  *usecases.PokemonService
	Map      *usecases.MapService
	Favorite *usecases.FavoriteService
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    *valkey.Cache

	// DefaultRadius is used when a map query omits radius, in meters.
	DefaultRadius float64
	// ViewportThreshold is the WebSocket recompute threshold, in meters.
	ViewportThreshold float64
	// OpenAPIPath overrides where /docs reads the OpenAPI document from.
	OpenAPIPath string
}

func (d *Dependencies) defaultRadius() float64 {
	if d.DefaultRadius > 0 {
		return d.DefaultRadius
	}
	return 5000
}
