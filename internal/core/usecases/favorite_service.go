package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/favorite"
	"github.com/samirrijal/pokemap/internal/core/ports"
)

// FavoriteService manages the single favorite Pokémon.
type FavoriteService struct {
	cell      *favorite.Cell
	pokemon   *PokemonService
	publisher ports.EventPublisher
}

// NewFavoriteService creates a new FavoriteService. publisher may be nil.
func NewFavoriteService(cell *favorite.Cell, pokemon *PokemonService, publisher ports.EventPublisher) *FavoriteService {
	return &FavoriteService{cell: cell, pokemon: pokemon, publisher: publisher}
}

// Name returns the current favorite name.
func (s *FavoriteService) Name() (string, bool) {
	return s.cell.Get()
}

// Pokemon resolves the favorite entity, or nil when none is set.
func (s *FavoriteService) Pokemon(ctx context.Context) (*domain.Pokemon, error) {
	name, ok := s.cell.Get()
	if !ok {
		return nil, nil
	}
	return s.pokemon.Get(ctx, name)
}

// Set marks name as the favorite after checking that it exists. The stored
// value is the canonical catalog name, so "25" and "Pikachu" both store
// "pikachu".
func (s *FavoriteService) Set(ctx context.Context, name string) (*domain.Pokemon, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidArgument)
	}

	p, err := s.pokemon.Get(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown pokemon %q", domain.ErrInvalidArgument, name)
		}
		return nil, err
	}

	canonical := p.Name
	if err := s.cell.Set(ctx, &canonical); err != nil {
		return nil, err
	}
	return p, nil
}

// Clear removes the favorite.
func (s *FavoriteService) Clear(ctx context.Context) error {
	return s.cell.Set(ctx, nil)
}

// Subscribe forwards cell changes to fn.
func (s *FavoriteService) Subscribe(fn favorite.Listener) func() {
	return s.cell.Subscribe(fn)
}

// PublishChanges publishes every favorite change to the event stream until
// the returned function is called.
func (s *FavoriteService) PublishChanges(ctx context.Context) func() {
	if s.publisher == nil {
		return func() {}
	}
	return s.cell.Subscribe(func(name *string) {
		change := &domain.FavoriteChange{Name: name, ChangedAt: time.Now().UTC()}
		if err := s.publisher.PublishFavoriteChanged(ctx, change); err != nil {
			slog.WarnContext(ctx, "publish favorite change failed", "error", err)
		}
	})
}
