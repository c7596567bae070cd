package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/ports"
	"github.com/samirrijal/pokemap/internal/core/registry"
	"github.com/samirrijal/pokemap/internal/pkg/metrics"
)

// MapService owns the in-memory proximity registry and keeps its optional
// persistence and event stream in step with it.
type MapService struct {
	items     *registry.Locked
	repo      ports.MapItemRepository
	publisher ports.EventPublisher
	origin    string
	now       func() time.Time
}

// NewMapService creates a new MapService. repo and publisher may be nil.
func NewMapService(repo ports.MapItemRepository, publisher ports.EventPublisher) *MapService {
	return &MapService{
		items:     registry.NewLocked(),
		repo:      repo,
		publisher: publisher,
		origin:    uuid.NewString(),
		now:       time.Now,
	}
}

// Restore loads persisted items into the registry. It is meant to run once
// at startup, before the service is shared.
func (s *MapService) Restore(ctx context.Context) (int, error) {
	if s.repo == nil {
		return 0, nil
	}
	stored, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list map items: %w", err)
	}

	restored := 0
	for _, item := range stored {
		if err := s.items.Add(item); err != nil {
			slog.WarnContext(ctx, "skipping stored map item", "id", item.ID, "error", err)
			continue
		}
		restored++
	}
	metrics.RegistryItems.Set(float64(s.items.Len()))
	return restored, nil
}

// Place registers a new item. The id must be unique; a duplicate returns an
// error wrapping domain.ErrDuplicateID.
func (s *MapService) Place(ctx context.Context, id, label string, at domain.Coordinate) (*domain.MapItem, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("%w: label is required", domain.ErrInvalidArgument)
	}

	item := domain.MapItem{
		ID:         strings.TrimSpace(id),
		Label:      label,
		Coordinate: at,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.items.Add(item); err != nil {
		return nil, err
	}
	metrics.ItemsPlaced.Inc()
	metrics.RegistryItems.Set(float64(s.items.Len()))

	if s.repo != nil {
		if err := s.repo.Insert(ctx, &item); err != nil {
			// the registry stays authoritative; the item is lost on restart only
			slog.ErrorContext(ctx, "persist map item failed", "id", item.ID, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishItemPlaced(ctx, &item); err != nil {
			slog.WarnContext(ctx, "publish item placed failed", "id", item.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "map item placed", "id", item.ID, "label", item.Label,
		"lat", item.Coordinate.Lat, "lon", item.Coordinate.Lon)
	return &item, nil
}

// Ingest adds an item placed by another instance. It neither persists nor
// publishes, and an item that is already known is ignored.
func (s *MapService) Ingest(item domain.MapItem) (bool, error) {
	if err := s.items.Add(item); err != nil {
		if errors.Is(err, domain.ErrDuplicateID) {
			return false, nil
		}
		return false, err
	}
	metrics.RegistryItems.Set(float64(s.items.Len()))
	return true, nil
}

// Visible returns the items inside vp, or every item when vp is nil.
func (s *MapService) Visible(vp *domain.Viewport) ([]domain.MapItem, error) {
	scope := "viewport"
	if vp == nil {
		scope = "all"
	}
	metrics.RegistryQueries.WithLabelValues(scope).Inc()
	return s.items.Query(vp)
}

// Stored answers a viewport query from persistence instead of the local
// registry. Without a repository it falls back to Visible.
func (s *MapService) Stored(ctx context.Context, vp *domain.Viewport) ([]domain.MapItem, error) {
	if s.repo == nil {
		return s.Visible(vp)
	}
	metrics.RegistryQueries.WithLabelValues("store").Inc()
	if vp == nil {
		return s.repo.List(ctx)
	}
	return s.repo.FindWithin(ctx, *vp)
}

// Persist writes every registry item to the repository, skipping ids that are
// already stored. Items ingested from other instances are saved this way.
func (s *MapService) Persist(ctx context.Context) (int, error) {
	if s.repo == nil {
		return 0, nil
	}
	items := s.items.All()
	if len(items) == 0 {
		return 0, nil
	}
	if err := s.repo.InsertBatch(ctx, items); err != nil {
		return 0, fmt.Errorf("persist map items: %w", err)
	}
	return len(items), nil
}

// All returns every item in insertion order.
func (s *MapService) All() []domain.MapItem {
	return s.items.All()
}

// Count returns the number of placed items.
func (s *MapService) Count() int {
	return s.items.Len()
}

// Clear removes every item from the registry and from persistence.
func (s *MapService) Clear(ctx context.Context) error {
	if s.repo != nil {
		if err := s.repo.DeleteAll(ctx); err != nil {
			return fmt.Errorf("delete map items: %w", err)
		}
	}
	s.items.Clear()
	metrics.RegistryItems.Set(0)

	if s.publisher != nil {
		ev := &domain.ItemsCleared{Origin: s.origin, ClearedAt: s.now().UTC()}
		if err := s.publisher.PublishItemsCleared(ctx, ev); err != nil {
			slog.WarnContext(ctx, "publish items cleared failed", "error", err)
		}
	}
	return nil
}

// Origin identifies this service instance in published clear events.
func (s *MapService) Origin() string {
	return s.origin
}

// IngestClear applies a clear made by another instance to the local
// registry only. The originating instance already cleared persistence.
// Events from this instance are ignored.
func (s *MapService) IngestClear(ev domain.ItemsCleared) bool {
	if ev.Origin == s.origin {
		return false
	}
	s.items.Clear()
	metrics.RegistryItems.Set(0)
	return true
}
