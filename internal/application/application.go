// Package application wires configuration, the selected store backend and
// the import service. Both the HTTP server and importctl start through it.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/catalogimport/internal/config"
	"github.com/JonMunkholm/catalogimport/internal/core"
	"github.com/JonMunkholm/catalogimport/internal/core/endpoints"
	"github.com/JonMunkholm/catalogimport/internal/store/memory"
	"github.com/JonMunkholm/catalogimport/internal/store/mongo"
	"github.com/JonMunkholm/catalogimport/internal/store/postgres"
)

// App holds the long-lived dependencies of a running process.
type App struct {
	Config  *config.Config
	Store   core.Store
	Service *core.Service

	closers []func(context.Context) error
}

// New opens the configured store, prepares its schema and builds the
// import service for every catalog endpoint.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	registry, err := endpoints.Registry()
	if err != nil {
		return nil, fmt.Errorf("build endpoint registry: %w", err)
	}

	app := &App{Config: cfg}
	if err := app.openStore(ctx, registry.All()); err != nil {
		app.Close(context.Background())
		return nil, err
	}

	app.Service = core.NewService(app.Store, registry, core.Options{
		Workers:       cfg.Import.Workers,
		Timeout:       cfg.Import.Timeout,
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWait:       cfg.Import.MaxWaitTime,
	})

	slog.Info("endpoints registered", "count", registry.Len())
	for _, ep := range registry.All() {
		slog.Debug("endpoint", "key", ep.Key, "version", ep.Version, "collection", ep.Collection)
	}
	return app, nil
}

func (a *App) openStore(ctx context.Context, eps []core.Endpoint) error {
	backend := strings.ToLower(a.Config.Store.Backend)
	switch backend {
	case config.BackendPostgres:
		db := a.Config.Database
		pool, err := postgres.Connect(ctx, db.URL, int32(db.MaxConns), int32(db.MinConns), db.MaxConnLifetime)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		pg := postgres.New(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		a.Store = pg

	case config.BackendMongo:
		m := a.Config.Mongo
		ms, err := mongo.Connect(ctx, m.URI, m.Database, m.ConnectTimeout)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, ms.Close)
		if err := ms.EnsureIndexes(ctx, eps); err != nil {
			return err
		}
		a.Store = ms

	case config.BackendMemory:
		slog.Warn("using in-memory store, imported documents are lost on exit")
		a.Store = memory.New()

	default:
		return fmt.Errorf("unknown store backend %q", a.Config.Store.Backend)
	}

	slog.Info("store ready", "backend", backend)
	return nil
}

// Close releases the store connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}
