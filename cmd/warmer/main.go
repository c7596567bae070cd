package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/pokemap/internal/adapters/nats"
	"github.com/samirrijal/pokemap/internal/adapters/pokeapi"
	"github.com/samirrijal/pokemap/internal/adapters/valkey"
	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/ports"
	"github.com/samirrijal/pokemap/internal/core/usecases"
	"github.com/samirrijal/pokemap/internal/pkg/config"
	"github.com/samirrijal/pokemap/internal/pkg/logging"
	"github.com/samirrijal/pokemap/internal/workflows"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: warmer <worker|start>")
	}

	cfg, err := config.Load("pokemap-warmer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
		Logger:   slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	switch os.Args[1] {
	case "worker":
		runWorker(cfg, c)
	case "start":
		startWarmup(cfg, c)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runWorker(cfg *config.Config, c client.Client) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		// nothing to warm without a shared cache
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, warm-up will not be announced", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	source := pokeapi.New(cfg.PokeAPI.BaseURL, time.Duration(cfg.PokeAPI.Timeout)*time.Second)
	pokemonSvc := usecases.NewPokemonService(source, cache, cfg.PokeAPI.Concurrency)

	// Keep the current favorite hot in the shared cache.
	if sub, err := natsadapter.NewSubscriber(cfg.NATS.URL); err != nil {
		slog.Warn("favorite warmer unavailable", "error", err)
	} else {
		defer sub.Close()
		err := sub.SubscribeFavoriteChanges(ctx, "favorite-warmer", func(ctx context.Context, change *domain.FavoriteChange) error {
			if change.Name == nil {
				return nil
			}
			_, err := pokemonSvc.Get(ctx, *change.Name)
			return err
		})
		if err != nil {
			slog.Warn("favorite warmer subscribe failed", "error", err)
		}
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.CatalogWarmupWorkflow)
	w.RegisterActivity(&workflows.CatalogActivities{
		Pokemon:   pokemonSvc,
		Publisher: publisher,
	})

	slog.Info("warmer worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func startWarmup(cfg *config.Config, c client.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflows.WarmupWorkflowID,
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.CatalogWarmupWorkflow, workflows.WarmupInput{PageSize: 50})
	if err != nil {
		log.Fatalf("start warm-up: %v", err)
	}
	slog.Info("warm-up started", "workflow_id", run.GetID(), "run_id", run.GetRunID())
}
