package workflows_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/usecases"
	"github.com/samirrijal/pokemap/internal/workflows"
)

type fakeSource struct {
	names []string
	fail  map[string]bool
}

func (f *fakeSource) FetchPokemon(ctx context.Context, key string) (*domain.Pokemon, error) {
	if f.fail[key] {
		return nil, errors.New("upstream unavailable")
	}
	for i, n := range f.names {
		if n == key {
			return &domain.Pokemon{ID: i + 1, Name: n}, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSource) FetchPokemonNames(ctx context.Context, offset, limit int) ([]string, error) {
	if offset >= len(f.names) {
		return []string{}, nil
	}
	end := offset + limit
	if end > len(f.names) {
		end = len(f.names)
	}
	return f.names[offset:end], nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	broadcast [][]byte
}

func (p *recordingPublisher) PublishItemPlaced(ctx context.Context, item *domain.MapItem) error {
	return nil
}
func (p *recordingPublisher) PublishItemsCleared(ctx context.Context, ev *domain.ItemsCleared) error {
	return nil
}
func (p *recordingPublisher) PublishFavoriteChanged(ctx context.Context, change *domain.FavoriteChange) error {
	return nil
}
func (p *recordingPublisher) PublishBroadcast(ctx context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcast = append(p.broadcast, data)
	return nil
}

func newEnv(src *fakeSource, pub *recordingPublisher) *testsuite.TestWorkflowEnvironment {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflows.CatalogWarmupWorkflow)
	env.RegisterActivity(&workflows.CatalogActivities{
		Pokemon:   usecases.NewPokemonService(src, nil, 2),
		Publisher: pub,
	})
	return env
}

func TestCatalogWarmup_AllPages(t *testing.T) {
	src := &fakeSource{
		names: []string{"bulbasaur", "ivysaur", "venusaur", "charmander", "charmeleon"},
		fail:  map[string]bool{"venusaur": true},
	}
	pub := &recordingPublisher{}
	env := newEnv(src, pub)

	env.ExecuteWorkflow(workflows.CatalogWarmupWorkflow, workflows.WarmupInput{PageSize: 2})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("unexpected workflow error: %v", err)
	}

	var res workflows.WarmupResult
	if err := env.GetWorkflowResult(&res); err != nil {
		t.Fatalf("get result: %v", err)
	}
	if res.Pages != 3 {
		t.Errorf("expected 3 pages, got %d", res.Pages)
	}
	if res.Warmed != 4 {
		t.Errorf("expected 4 warmed, got %d", res.Warmed)
	}
	if len(res.Failed) != 1 || res.Failed[0] != "venusaur" {
		t.Errorf("expected venusaur to fail, got %v", res.Failed)
	}
	if len(pub.broadcast) != 1 {
		t.Errorf("expected one announcement, got %d", len(pub.broadcast))
	}
}

func TestCatalogWarmup_MaxPages(t *testing.T) {
	src := &fakeSource{names: []string{"a", "b", "c", "d", "e"}}
	env := newEnv(src, &recordingPublisher{})

	env.ExecuteWorkflow(workflows.CatalogWarmupWorkflow, workflows.WarmupInput{StartOffset: 1, PageSize: 2, MaxPages: 1})

	var res workflows.WarmupResult
	if err := env.GetWorkflowResult(&res); err != nil {
		t.Fatalf("get result: %v", err)
	}
	if res.Pages != 1 || res.Warmed != 2 {
		t.Errorf("expected a single page of 2, got %+v", res)
	}
}

func TestCatalogWarmup_InvalidOffsetIsNotRetried(t *testing.T) {
	env := newEnv(&fakeSource{names: []string{"a"}}, &recordingPublisher{})

	env.ExecuteWorkflow(workflows.CatalogWarmupWorkflow, workflows.WarmupInput{StartOffset: -1, PageSize: 2})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if env.GetWorkflowError() == nil {
		t.Fatal("expected workflow error for a negative offset")
	}
}

func TestWarmPokemon_AllFailedIsRetryable(t *testing.T) {
	acts := &workflows.CatalogActivities{
		Pokemon: usecases.NewPokemonService(&fakeSource{names: []string{"a"}, fail: map[string]bool{"a": true}}, nil, 1),
	}
	if _, err := acts.WarmPokemon(context.Background(), []string{"a"}); err == nil {
		t.Error("expected error when no entity could be loaded")
	}
}

func TestAnnounceWarmup_NoPublisher(t *testing.T) {
	acts := &workflows.CatalogActivities{}
	if err := acts.AnnounceWarmup(context.Background(), workflows.WarmupResult{Warmed: 1}); err != nil {
		t.Errorf("expected nil error without publisher, got %v", err)
	}
}
