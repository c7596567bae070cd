package ports

import (
	"context"

	"github.com/samirrijal/pokemap/internal/core/domain"
)

// PokemonSource is the remote catalog (PokeAPI).
type PokemonSource interface {
	// FetchPokemon resolves an entity by name or numeric id.
	FetchPokemon(ctx context.Context, key string) (*domain.Pokemon, error)
	// FetchPokemonNames returns names in [offset, offset+limit).
	FetchPokemonNames(ctx context.Context, offset, limit int) ([]string, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishItemPlaced(ctx context.Context, item *domain.MapItem) error
	PublishItemsCleared(ctx context.Context, ev *domain.ItemsCleared) error
	PublishFavoriteChanged(ctx context.Context, change *domain.FavoriteChange) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
