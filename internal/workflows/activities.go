package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/ports"
	"github.com/samirrijal/pokemap/internal/core/usecases"
)

// ErrTypeInvalidArgument marks activity errors that must not be retried.
const ErrTypeInvalidArgument = "InvalidArgument"

// WarmPageResult is the outcome of warming one page of names.
type WarmPageResult struct {
	Warmed int
	Failed []string
}

// CatalogActivities holds the activity implementations for the warm-up workflow.
type CatalogActivities struct {
	Pokemon   *usecases.PokemonService
	Publisher ports.EventPublisher // optional
}

// FetchNamesPage returns catalog names in [offset, offset+limit).
func (a *CatalogActivities) FetchNamesPage(ctx context.Context, offset, limit int) ([]string, error) {
	names, err := a.Pokemon.ListNames(ctx, offset, limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidArgument, err)
		}
		return nil, fmt.Errorf("list names at %d: %w", offset, err)
	}
	return names, nil
}

// WarmPokemon resolves every name through the read-through cache.
func (a *CatalogActivities) WarmPokemon(ctx context.Context, names []string) (WarmPageResult, error) {
	loaded := a.Pokemon.GetMany(ctx, names)

	got := make(map[string]bool, len(loaded))
	for _, p := range loaded {
		got[p.Name] = true
	}
	res := WarmPageResult{Warmed: len(loaded)}
	for _, n := range names {
		if !got[n] {
			res.Failed = append(res.Failed, n)
		}
	}
	// a page where nothing loaded is most likely an upstream outage, retry it
	if len(names) > 0 && len(loaded) == 0 {
		return res, fmt.Errorf("warm page starting at %q: no entity loaded", names[0])
	}
	if len(res.Failed) > 0 {
		slog.WarnContext(ctx, "warm-up skipped entities", "count", len(res.Failed))
	}
	return res, nil
}

// AnnounceWarmup broadcasts the warm-up summary.
func (a *CatalogActivities) AnnounceWarmup(ctx context.Context, result WarmupResult) error {
	if a.Publisher == nil {
		slog.InfoContext(ctx, "warm-up finished (no publisher)", "warmed", result.Warmed)
		return nil
	}
	data, err := json.Marshal(map[string]interface{}{
		"type":   "catalog_warmed",
		"pages":  result.Pages,
		"warmed": result.Warmed,
		"failed": len(result.Failed),
	})
	if err != nil {
		return err
	}
	return a.Publisher.PublishBroadcast(ctx, data)
}
