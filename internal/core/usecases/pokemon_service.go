package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/ports"
	"github.com/samirrijal/pokemap/internal/pkg/metrics"
)

const (
	pokemonCacheTTL   = 3600 // entities never change upstream
	namesCacheTTL     = 600
	maxPageSize       = 100
	defaultFetchLimit = 8
)

// PokemonService resolves catalog entities through a read-through cache.
type PokemonService struct {
	source      ports.PokemonSource
	cache       ports.CacheService
	concurrency int
}

// NewPokemonService creates a new PokemonService. cache may be nil.
// concurrency bounds parallel upstream fetches in GetMany (default 8).
func NewPokemonService(source ports.PokemonSource, cache ports.CacheService, concurrency int) *PokemonService {
	if concurrency <= 0 {
		concurrency = defaultFetchLimit
	}
	return &PokemonService{source: source, cache: cache, concurrency: concurrency}
}

// Get returns a single entity by name or id.
func (s *PokemonService) Get(ctx context.Context, key string) (*domain.Pokemon, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return nil, fmt.Errorf("%w: pokemon name or id is required", domain.ErrInvalidArgument)
	}

	cacheKey := "pokemon:" + key
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var p domain.Pokemon
			if err := json.Unmarshal(data, &p); err == nil {
				metrics.CacheHits.WithLabelValues("pokemon").Inc()
				return &p, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("pokemon").Inc()
	}

	p, err := s.source.FetchPokemon(ctx, key)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, pokemonCacheTTL)
			// lookups by id and by name share one entry each
			if p.Name != "" && p.Name != key {
				_ = s.cache.Set(ctx, "pokemon:"+p.Name, data, pokemonCacheTTL)
			}
		}
	}
	return p, nil
}

// ListNames returns catalog names in [offset, offset+limit). limit is
// clamped to 1..100.
func (s *PokemonService) ListNames(ctx context.Context, offset, limit int) ([]string, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", domain.ErrInvalidArgument)
	}
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	cacheKey := fmt.Sprintf("pokemon:names:%d:%d", offset, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var names []string
			if err := json.Unmarshal(data, &names); err == nil {
				metrics.CacheHits.WithLabelValues("names").Inc()
				return names, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("names").Inc()
	}

	names, err := s.source.FetchPokemonNames(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(names); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, namesCacheTTL)
		}
	}
	return names, nil
}

// GetMany fetches entities concurrently. Keys that fail to resolve are
// logged and dropped; the rest keep their input order.
func (s *PokemonService) GetMany(ctx context.Context, keys []string) []domain.Pokemon {
	results := make([]*domain.Pokemon, len(keys))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			p, err := s.Get(ctx, key)
			if err != nil {
				slog.WarnContext(ctx, "pokemon fetch failed", "key", key, "error", err)
				return
			}
			results[i] = p
		}(i, key)
	}
	wg.Wait()

	out := make([]domain.Pokemon, 0, len(keys))
	for _, p := range results {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// ListPage loads one page of names and resolves every entity on it. listed is
// the size of the names page, which can exceed len(pokemon) when some
// entities fail to load; callers page on listed.
func (s *PokemonService) ListPage(ctx context.Context, offset, limit int, sortByName bool) (pokemon []domain.Pokemon, listed int, err error) {
	names, err := s.ListNames(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	pokemon = s.GetMany(ctx, names)
	if sortByName {
		sort.SliceStable(pokemon, func(i, j int) bool { return pokemon[i].Name < pokemon[j].Name })
	}
	return pokemon, len(names), nil
}
