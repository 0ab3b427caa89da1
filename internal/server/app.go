// Package server wires identityd together: it waits for Postgres, migrates
// the schema, and runs the gRPC endpoint next to the metrics endpoint until
// the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/fitcoach/internal/logging"
	"github.com/dmitrijs2005/fitcoach/internal/server/config"
	"github.com/dmitrijs2005/fitcoach/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/fitcoach/internal/server/services"

	gs "github.com/dmitrijs2005/fitcoach/internal/server/grpc"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	accounts gs.Accounts
}

type pinger interface {
	PingContext(ctx context.Context) error
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := sql.Open(repomanager.DriverName, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.DatabaseWaitTimeout
	if err := waitForDB(ctx, db, b, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database unavailable: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		accounts: services.NewAccountService(db, rm, c),
	}, nil
}

// waitForDB pings db until it answers or b gives up.
func waitForDB(ctx context.Context, db pinger, b backoff.BackOff, logger logging.Logger) error {
	return backoff.RetryNotify(
		func() error { return db.PingContext(ctx) },
		backoff.WithContext(b, ctx),
		func(err error, next time.Duration) {
			logger.Warn(ctx, "Database is not ready", "error", err, "retry_in", next)
		},
	)
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			app.logger.Info(ctx, "Received signal", "signal", sig.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves until ctx is done, a signal arrives, or a listener fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	metrics := gs.NewMetrics()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.accounts, app.config.SecretKey, metrics)
		return s.Run(gctx)
	})

	if app.config.MetricsAddr != "" {
		srv := gs.NewMetricsServer(app.config.MetricsAddr, metrics)

		g.Go(func() error {
			app.logger.Info(gctx, "Starting metrics server", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()

	if app.db != nil {
		if cerr := app.db.Close(); cerr != nil {
			app.logger.Warn(ctx, "Failed to close database", "error", cerr)
		}
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
