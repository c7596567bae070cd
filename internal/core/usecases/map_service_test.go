package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/usecases"
)

var wawel = domain.Coordinate{Lat: 50.054, Lon: 19.9355}

func TestMapService_PlacePersistsAndPublishes(t *testing.T) {
	repo := &mockMapRepo{}
	pub := &mockPublisher{}
	svc := usecases.NewMapService(repo, pub)

	item, err := svc.Place(context.Background(), " p1 ", " pikachu ", wawel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ID != "p1" || item.Label != "pikachu" {
		t.Errorf("expected trimmed id and label, got %+v", item)
	}
	if item.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
	if len(repo.items) != 1 || repo.items[0].ID != "p1" {
		t.Errorf("expected item persisted, got %+v", repo.items)
	}
	if len(pub.placed) != 1 {
		t.Errorf("expected 1 published event, got %d", len(pub.placed))
	}
	if svc.Count() != 1 {
		t.Errorf("expected 1 item, got %d", svc.Count())
	}
}

func TestMapService_PlaceDuplicate(t *testing.T) {
	repo := &mockMapRepo{}
	svc := usecases.NewMapService(repo, nil)

	if _, err := svc.Place(context.Background(), "p1", "pikachu", wawel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Place(context.Background(), "p1", "eevee", wawel)
	if !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if len(repo.items) != 1 {
		t.Errorf("duplicate must not be persisted, got %d rows", len(repo.items))
	}
}

func TestMapService_PlaceValidation(t *testing.T) {
	svc := usecases.NewMapService(nil, nil)
	if _, err := svc.Place(context.Background(), "p1", "", wawel); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty label, got %v", err)
	}
	if _, err := svc.Place(context.Background(), "", "pikachu", wawel); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty id, got %v", err)
	}
}

func TestMapService_PlaceSurvivesSideEffectFailures(t *testing.T) {
	repo := &mockMapRepo{insertErr: errors.New("db down")}
	pub := &mockPublisher{placeErr: errors.New("nats down")}
	svc := usecases.NewMapService(repo, pub)

	if _, err := svc.Place(context.Background(), "p1", "pikachu", wawel); err != nil {
		t.Fatalf("expected registry write to succeed, got %v", err)
	}
	if svc.Count() != 1 {
		t.Errorf("expected 1 item, got %d", svc.Count())
	}
}

func TestMapService_Visible(t *testing.T) {
	svc := usecases.NewMapService(nil, nil)
	ctx := context.Background()
	if _, err := svc.Place(ctx, "near", "pikachu", wawel); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Place(ctx, "far", "mew", domain.Coordinate{Lat: 52.2297, Lon: 21.0122}); err != nil {
		t.Fatal(err)
	}

	all, err := svc.Visible(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 items without viewport, got %d", len(all))
	}

	visible, err := svc.Visible(&domain.Viewport{Center: wawel, Radius: 5000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != "near" {
		t.Errorf("expected only near item, got %+v", visible)
	}

	if _, err := svc.Visible(&domain.Viewport{Center: wawel, Radius: 0}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for zero radius, got %v", err)
	}
}

func TestMapService_Restore(t *testing.T) {
	repo := &mockMapRepo{items: []domain.MapItem{
		{ID: "a", Label: "pikachu", Coordinate: wawel},
		{ID: "a", Label: "dup", Coordinate: wawel},
		{ID: "b", Label: "eevee", Coordinate: wawel},
	}}
	svc := usecases.NewMapService(repo, nil)

	n, err := svc.Restore(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 restored items, got %d", n)
	}
	all := svc.All()
	if len(all) != 2 || all[0].ID != "a" || all[1].ID != "b" {
		t.Errorf("unexpected items %+v", all)
	}
}

func TestMapService_RestoreError(t *testing.T) {
	svc := usecases.NewMapService(&mockMapRepo{listErr: errors.New("db down")}, nil)
	if _, err := svc.Restore(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if n, err := usecases.NewMapService(nil, nil).Restore(context.Background()); err != nil || n != 0 {
		t.Errorf("expected no-op without repo, got %d, %v", n, err)
	}
}

func TestMapService_Clear(t *testing.T) {
	repo := &mockMapRepo{}
	pub := &mockPublisher{}
	svc := usecases.NewMapService(repo, pub)
	ctx := context.Background()
	if _, err := svc.Place(ctx, "a", "pikachu", wawel); err != nil {
		t.Fatal(err)
	}

	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Count() != 0 || len(repo.items) != 0 {
		t.Error("expected registry and repo to be empty")
	}
	if pub.cleared != 1 {
		t.Errorf("expected 1 cleared event, got %d", pub.cleared)
	}
	if pub.clearEvents[0].Origin != svc.Origin() || pub.clearEvents[0].ClearedAt.IsZero() {
		t.Errorf("expected clear event stamped with this instance, got %+v", pub.clearEvents[0])
	}
}

func TestMapService_IngestClearThenPersist(t *testing.T) {
	ctx := context.Background()
	repo := &mockMapRepo{}
	pubA := &mockPublisher{}
	a := usecases.NewMapService(repo, pubA)
	b := usecases.NewMapService(repo, nil)

	item, err := a.Place(ctx, "p1", "pikachu", wawel)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if _, err := b.Ingest(*item); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if err := a.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !b.IngestClear(pubA.clearEvents[0]) {
		t.Fatal("expected the remote clear to apply")
	}
	if b.Count() != 0 {
		t.Errorf("expected b to be empty, got %d items", b.Count())
	}

	if _, err := b.Persist(ctx); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if len(repo.items) != 0 {
		t.Errorf("cleared rows must stay deleted, got %+v", repo.items)
	}
}

func TestMapService_IngestClearIgnoresOwnEvent(t *testing.T) {
	ctx := context.Background()
	pub := &mockPublisher{}
	svc := usecases.NewMapService(nil, pub)

	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := svc.Place(ctx, "after", "eevee", wawel); err != nil {
		t.Fatalf("place: %v", err)
	}
	// the echo of our own clear arrives after a new placement
	if svc.IngestClear(pub.clearEvents[0]) {
		t.Error("own clear event must be ignored")
	}
	if svc.Count() != 1 {
		t.Errorf("expected the later placement to survive, got %d items", svc.Count())
	}
}

func TestMapService_ClearKeepsRegistryWhenRepoFails(t *testing.T) {
	repo := &mockMapRepo{}
	svc := usecases.NewMapService(repo, nil)
	ctx := context.Background()
	if _, err := svc.Place(ctx, "a", "pikachu", wawel); err != nil {
		t.Fatal(err)
	}
	repo.deleteErr = errors.New("db down")

	if err := svc.Clear(ctx); err == nil {
		t.Fatal("expected error")
	}
	if svc.Count() != 1 {
		t.Errorf("expected registry untouched, got %d items", svc.Count())
	}
}

func TestMapService_Ingest(t *testing.T) {
	repo := &mockMapRepo{}
	pub := &mockPublisher{}
	svc := usecases.NewMapService(repo, pub)

	remote := domain.MapItem{ID: "remote", Label: "eevee", Coordinate: wawel}
	added, err := svc.Ingest(remote)
	if err != nil || !added {
		t.Fatalf("expected item ingested, got added=%v err=%v", added, err)
	}
	added, err = svc.Ingest(remote)
	if err != nil || added {
		t.Errorf("expected duplicate to be ignored, got added=%v err=%v", added, err)
	}
	if len(repo.items) != 0 || len(pub.placed) != 0 {
		t.Error("ingest must not persist or publish")
	}

	_, err = svc.Ingest(domain.MapItem{ID: " ", Label: "x", Coordinate: wawel})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected invalid argument for blank id, got %v", err)
	}
}

func TestMapService_PersistSavesIngested(t *testing.T) {
	repo := &mockMapRepo{}
	svc := usecases.NewMapService(repo, nil)

	if _, err := svc.Place(context.Background(), "local", "pikachu", wawel); err != nil {
		t.Fatalf("place: %v", err)
	}
	if _, err := svc.Ingest(domain.MapItem{ID: "remote", Label: "eevee", Coordinate: wawel}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	n, err := svc.Persist(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 items written, got %d", n)
	}
	if len(repo.items) != 2 || repo.items[0].ID != "local" || repo.items[1].ID != "remote" {
		t.Errorf("expected local then remote stored once each, got %+v", repo.items)
	}
	if repo.batches != 1 {
		t.Errorf("expected a single batch, got %d", repo.batches)
	}
}

func TestMapService_PersistWithoutRepo(t *testing.T) {
	svc := usecases.NewMapService(nil, nil)
	if _, err := svc.Place(context.Background(), "a", "pikachu", wawel); err != nil {
		t.Fatalf("place: %v", err)
	}
	if n, err := svc.Persist(context.Background()); err != nil || n != 0 {
		t.Errorf("expected no-op, got n=%d err=%v", n, err)
	}
}

func TestMapService_Stored(t *testing.T) {
	near := domain.MapItem{ID: "near", Label: "pikachu", Coordinate: domain.Coordinate{Lat: 50, Lon: 20}}
	far := domain.MapItem{ID: "far", Label: "eevee", Coordinate: domain.Coordinate{Lat: 50.018, Lon: 20}}
	repo := &mockMapRepo{items: []domain.MapItem{near, far}}
	svc := usecases.NewMapService(repo, nil)

	vp := &domain.Viewport{Center: near.Coordinate, Radius: 1000}
	items, err := svc.Stored(context.Background(), vp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "near" {
		t.Errorf("expected only near, got %+v", items)
	}
	if repo.findCalls != 1 {
		t.Errorf("expected the repository to answer the viewport query, got %d calls", repo.findCalls)
	}
	if svc.Count() != 0 {
		t.Error("stored query must not touch the registry")
	}

	all, err := svc.Stored(context.Background(), nil)
	if err != nil || len(all) != 2 {
		t.Errorf("expected both stored items, got %d (err %v)", len(all), err)
	}
}

func TestMapService_StoredFallsBackToRegistry(t *testing.T) {
	svc := usecases.NewMapService(nil, nil)
	if _, err := svc.Place(context.Background(), "a", "pikachu", wawel); err != nil {
		t.Fatalf("place: %v", err)
	}
	items, err := svc.Stored(context.Background(), &domain.Viewport{Center: wawel, Radius: 10})
	if err != nil || len(items) != 1 {
		t.Errorf("expected registry answer, got %+v (err %v)", items, err)
	}
}
