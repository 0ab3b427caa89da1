// Package app wires the fitcoach client together: it picks the session
// store and identity backend named by the configuration and builds the
// session manager on top of them.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/fitcoach/internal/client/config"
	"github.com/dmitrijs2005/fitcoach/internal/client/identity"
	"github.com/dmitrijs2005/fitcoach/internal/client/identity/hosted"
	"github.com/dmitrijs2005/fitcoach/internal/client/identity/local"
	"github.com/dmitrijs2005/fitcoach/internal/client/kvstore"
	"github.com/dmitrijs2005/fitcoach/internal/client/session"
	"github.com/dmitrijs2005/fitcoach/internal/filex"
	"github.com/dmitrijs2005/fitcoach/internal/logging"
)

// DatabaseFile is the SQLite file name inside the data directory.
const DatabaseFile = "fitcoach.db"

type App struct {
	Config   *config.Config
	Store    kvstore.Store
	Backend  identity.Backend
	Sessions *session.Manager

	logger logging.Logger
}

// pinger is implemented by backends that can check their remote end.
type pinger interface {
	Ping(ctx context.Context) error
}

func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Debug(ctx, "client initialized", "backend", cfg.Backend, "store", cfg.Store)

	return &App{
		Config:   cfg,
		Store:    store,
		Backend:  backend,
		Sessions: session.New(backend, store, logger),
		logger:   logger,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (kvstore.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return kvstore.NewMemory(), nil

	case config.StoreSQLite:
		dir, err := filex.EnsureDir(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("prepare data dir: %w", err)
		}
		return kvstore.OpenSQLite(ctx, filepath.Join(dir, DatabaseFile))

	case config.StoreRedis:
		return kvstore.NewRedis(ctx, kvstore.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

func openBackend(cfg *config.Config, store kvstore.Store, logger logging.Logger) (identity.Backend, error) {
	switch cfg.Backend {
	case config.BackendHosted:
		return hosted.New(cfg.ServerEndpointAddr, cfg.RequestTimeout, logger)
	case config.BackendLocal:
		return local.New(store, logger), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// Start bootstraps the session manager.
func (a *App) Start(ctx context.Context) error {
	return a.Sessions.Bootstrap(ctx)
}

// Ping reports whether the backend is reachable. Backends without a remote
// end are always reachable.
func (a *App) Ping(ctx context.Context) error {
	if p, ok := a.Backend.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (a *App) Close() error {
	return errors.Join(a.Backend.Close(), a.Store.Close())
}
