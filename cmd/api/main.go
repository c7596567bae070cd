package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/pokemap/internal/adapters/http"
	"github.com/samirrijal/pokemap/internal/adapters/memory"
	natsadapter "github.com/samirrijal/pokemap/internal/adapters/nats"
	"github.com/samirrijal/pokemap/internal/adapters/pokeapi"
	"github.com/samirrijal/pokemap/internal/adapters/postgres"
	"github.com/samirrijal/pokemap/internal/adapters/valkey"
	"github.com/samirrijal/pokemap/internal/core/favorite"
	"github.com/samirrijal/pokemap/internal/core/ports"
	"github.com/samirrijal/pokemap/internal/core/usecases"
	"github.com/samirrijal/pokemap/internal/pkg/config"
	"github.com/samirrijal/pokemap/internal/pkg/logging"
	"github.com/samirrijal/pokemap/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("pokemap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database (optional, map items are kept in memory only without it)
	var (
		db      *postgres.DB
		mapRepo ports.MapItemRepository
	)
	if cfg.Database.Enabled {
		db, err = postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		mapRepo = postgres.NewMapItemRepo(db)
	}

	// Cache + key-value store
	var (
		cacheSvc ports.CacheService
		kv       ports.KeyValueStore = memory.NewStore()
	)
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, favorite is kept in memory", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cacheSvc = cache
		kv = valkey.NewStore(cache)
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Raw NATS connection for WebSocket relay and cross-instance sync
	var natsConn *nats.Conn
	if pub != nil {
		natsConn, err = natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats relay conn unavailable", "error", err)
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	// Use cases
	source := pokeapi.New(cfg.PokeAPI.BaseURL, time.Duration(cfg.PokeAPI.Timeout)*time.Second)
	pokemonSvc := usecases.NewPokemonService(source, cacheSvc, cfg.PokeAPI.Concurrency)

	mapSvc := usecases.NewMapService(mapRepo, publisher)
	restored, err := mapSvc.Restore(ctx)
	if err != nil {
		log.Fatalf("restore map items: %v", err)
	}
	slog.Info("map items restored", "count", restored)

	cell, err := favorite.Load(ctx, kv, favorite.DefaultKey)
	if err != nil {
		log.Fatalf("load favorite: %v", err)
	}
	favoriteSvc := usecases.NewFavoriteService(cell, pokemonSvc, publisher)
	stopPublishing := favoriteSvc.PublishChanges(ctx)
	defer stopPublishing()

	// Placements and clears from other instances reach the local registry.
	if natsConn != nil {
		sub, err := natsConn.Subscribe(natsadapter.SubjectItemPlaced, func(msg *nats.Msg) {
			item, err := natsadapter.DecodeItemPlaced(msg.Data)
			if err != nil {
				slog.Warn("bad placement event", "error", err)
				return
			}
			if added, err := mapSvc.Ingest(*item); err != nil {
				slog.Warn("ingest placement failed", "id", item.ID, "error", err)
			} else if added {
				slog.Debug("ingested remote placement", "id", item.ID)
			}
		})
		if err != nil {
			slog.Warn("placement sync unavailable", "error", err)
		} else {
			defer func() { _ = sub.Unsubscribe() }()
		}

		clearSub, err := natsConn.Subscribe(natsadapter.SubjectItemsCleared, func(msg *nats.Msg) {
			ev, err := natsadapter.DecodeItemsCleared(msg.Data)
			if err != nil {
				slog.Warn("bad clear event", "error", err)
				return
			}
			if mapSvc.IngestClear(*ev) {
				slog.Info("map cleared by another instance", "origin", ev.Origin, "cleared_at", ev.ClearedAt)
			}
		})
		if err != nil {
			slog.Warn("clear sync unavailable", "error", err)
		} else {
			defer func() { _ = clearSub.Unsubscribe() }()
		}
	}

	deps := &http.Dependencies{
		Pokemon:           pokemonSvc,
		Map:               mapSvc,
		Favorite:          favoriteSvc,
		NATS:              natsConn,
		DB:                db,
		Cache:             cache,
		DefaultRadius:     cfg.Map.DefaultRadius,
		ViewportThreshold: cfg.Map.ViewportThreshold,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "PokeMap API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:8081, http://localhost:19006",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, If-None-Match",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	if db != nil {
		if n, err := mapSvc.Persist(shutdownCtx); err != nil {
			slog.Error("persist map items", "error", err)
		} else {
			slog.Info("map items persisted", "count", n)
		}
	}

	slog.Info("server stopped")
}
