package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/samirrijal/pokemap/internal/adapters/postgres"
	"github.com/samirrijal/pokemap/internal/pkg/config"
	"github.com/samirrijal/pokemap/internal/pkg/logging"
)

// migrations are applied in order by "up" and reverted in reverse by "down".
var migrations = []string{
	"migrations/001_map_items",
}

func main() {
	if len(os.Args) < 2 {
		slog.Error("usage: migrate <up|down>")
		os.Exit(2)
	}

	cfg, err := config.Load("pokemap-migrate")
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 1)
	if err != nil {
		slog.Error("db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var files []string
	switch os.Args[1] {
	case "up":
		for _, m := range migrations {
			files = append(files, m+".sql")
		}
	case "down":
		for i := len(migrations) - 1; i >= 0; i-- {
			files = append(files, migrations[i]+".down.sql")
		}
	default:
		slog.Error("unknown command", "command", os.Args[1])
		os.Exit(2)
	}

	for _, f := range files {
		if err := db.ExecFile(ctx, f); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}
		slog.Info("migration applied", "file", f)
	}
	slog.Info("migrations complete", "direction", os.Args[1], "count", len(files))
}
