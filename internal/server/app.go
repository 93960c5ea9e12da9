// Package server wires the configured store to the HTTP API and the mirror
// watcher and runs them until the process is told to stop.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/zyntracker/internal/api"
	"github.com/dmitrijs2005/zyntracker/internal/config"
	"github.com/dmitrijs2005/zyntracker/internal/logging"
	"github.com/dmitrijs2005/zyntracker/internal/logstore"
	"github.com/dmitrijs2005/zyntracker/internal/mirror"
	"github.com/dmitrijs2005/zyntracker/internal/watch"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	closeLog   func() error
	store      *logstore.Store
	closeStore func() error
}

// NewApp builds the logger and opens the store. A remote failure while
// loading is not fatal; the store serves local data.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		File:   c.LogFile,
	})
	if err != nil {
		return nil, err
	}

	store, closeStore, err := logstore.Open(ctx, c, logger)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("store init error: %w", err)
	}

	return &App{
		config:     c,
		logger:     logger,
		closeLog:   closeLog,
		store:      store,
		closeStore: closeStore,
	}, nil
}

// Handler is the HTTP API for the app's store.
func (app *App) Handler() http.Handler {
	return api.NewRouter(app.store,
		api.WithLogger(app.logger.With("module", "http")),
		api.WithDefaultWindow(app.config.DefaultWindow),
	)
}

// Run listens on the configured address and serves until SIGINT or
// SIGTERM, then shuts down and releases the store.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", app.config.HTTPAddr)
	if err != nil {
		app.Close()
		return err
	}
	return app.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln and, for a sqlite mirror, the mirror
// watcher, until ctx is done or one of them fails. It closes the app
// before returning.
func (app *App) Serve(ctx context.Context, ln net.Listener) error {
	defer app.Close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.serveHTTP(ctx, ln)
	})

	if app.config.WatchMirror && app.config.MirrorDriver == config.MirrorSQLite {
		w := watch.New(mirror.FilePath(app.config.DataDir), app.store,
			watch.WithLogger(app.logger.With("module", "watch")))
		g.Go(func() error {
			return w.Run(ctx)
		})
	}

	err := g.Wait()
	app.logger.Info(context.Background(), "server stopped")
	return err
}

func (app *App) serveHTTP(ctx context.Context, ln net.Listener) error {
	// request contexts outlive ctx so that Shutdown can drain them; feeds
	// are ended once draining is over
	base, cancelBase := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelBase()

	srv := &http.Server{
		Handler:           app.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return base },
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	cancelBase()
	<-errCh
	return err
}

// Close releases the store and flushes the logger. It is safe to call
// more than once.
func (app *App) Close() {
	if app.closeStore != nil {
		if err := app.closeStore(); err != nil {
			app.logger.Error(context.Background(), "close store", "err", err)
		}
		app.closeStore = nil
	}
	if app.closeLog != nil {
		_ = app.closeLog()
		app.closeLog = nil
	}
}
