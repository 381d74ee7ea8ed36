// Package app provides application-level wiring for the metaql server:
// it loads the catalog snapshot and builds the engine around it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"metaql/catalog"
	"metaql/engine"
	"metaql/internal/config"
)

// Deps holds the external dependencies that main() must provide.
type Deps struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// App holds the fully-wired application.
type App struct {
	Catalog *catalog.Catalog
	Engine  *engine.Service
}

// New loads the catalog named by the configuration and wires the engine.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	start := time.Now()
	cat, err := catalog.LoadFile(ctx, cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if cfg.MainDatabase != "" {
		cat, err = cat.WithMain(cfg.MainDatabase)
		if err != nil {
			return nil, fmt.Errorf("main database: %w", err)
		}
	}

	objects := 0
	for _, ib := range cat.Databases() {
		objects += len(ib.All())
	}
	logger.Info("catalog loaded",
		"path", cfg.CatalogPath,
		"main", cat.Main().Name(),
		"databases", len(cat.Databases()),
		"objects", objects,
		"duration", time.Since(start))

	return &App{
		Catalog: cat,
		Engine:  engine.NewService(cat, logger.With("component", "engine")),
	}, nil
}
