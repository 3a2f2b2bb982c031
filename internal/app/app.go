// Package app wires the linkkeeper client together: configuration, logging,
// the persisted state store, the API client and the session, and then runs
// either the local web front end or a single CLI command.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patric-chuzhbe/linkkeeper/internal/apiclient"
	"github.com/patric-chuzhbe/linkkeeper/internal/authclient"
	"github.com/patric-chuzhbe/linkkeeper/internal/cli"
	"github.com/patric-chuzhbe/linkkeeper/internal/config"
	"github.com/patric-chuzhbe/linkkeeper/internal/db/jsondb"
	"github.com/patric-chuzhbe/linkkeeper/internal/db/memorystorage"
	"github.com/patric-chuzhbe/linkkeeper/internal/db/postgresdb"
	"github.com/patric-chuzhbe/linkkeeper/internal/guard"
	"github.com/patric-chuzhbe/linkkeeper/internal/linkdir"
	"github.com/patric-chuzhbe/linkkeeper/internal/logger"
	"github.com/patric-chuzhbe/linkkeeper/internal/models"
	"github.com/patric-chuzhbe/linkkeeper/internal/router"
	"github.com/patric-chuzhbe/linkkeeper/internal/routes"
	"github.com/patric-chuzhbe/linkkeeper/internal/session"
)

const serveCommand = "serve"

type stateStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// App holds the wired components of one process.
type App struct {
	cfg         *config.Config
	db          stateStore
	store       *session.Store
	guard       *guard.Guard
	cli         *cli.CLI
	httpHandler http.Handler
}

// New loads the configuration, initializes the logger, opens the state
// store and builds every component on top of it. Command results are
// printed to out; usage and diagnostics to errOut.
func New(out, errOut io.Writer, configOptions ...config.InitOption) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New(append([]config.InitOption{config.WithOutput(errOut)}, configOptions...)...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	vault := session.NewVault(app.db)
	api := apiclient.New(
		app.cfg.APIBaseURL,
		app.cfg.RequestTimeout,
		vault,
		routes.NavigatorFunc(func(route string) {
			logger.Log.Infoln("navigating", "route", route)
		}),
	)
	links := linkdir.New(api)

	app.store = session.New(vault, authclient.New(api))
	app.guard = guard.New(app.store)
	app.cli = cli.New(app.store, links, app.guard, out, errOut)
	app.httpHandler = router.New(app.store, links, app.guard)

	return app, nil
}

// Run restores the session and executes the command given on the command
// line. "serve" starts the web front end.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := a.cfg.Args
	if len(args) > 0 && args[0] == serveCommand {
		return a.serve(ctx)
	}

	a.guard.Resolve(ctx)

	return a.cli.Run(ctx, args)
}

// serve starts the HTTP server with graceful shutdown support. The session
// is restored in the background; the guard answers 503 until it is done.
func (a *App) serve(ctx context.Context) error {
	go a.guard.Resolve(ctx)

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr, "api", a.cfg.APIBaseURL)

	server := &http.Server{
		Addr:              a.cfg.RunAddr,
		Handler:           a.httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return nil

	case err := <-serverErrCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

// Close releases the state store and flushes the logger.
func (a *App) Close() {
	if err := a.db.Close(); err != nil {
		logger.Log.Errorln("State store close error:", err)
	}
	if err := logger.Sync(); err != nil {
		fmt.Fprintln(os.Stderr, "Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.StateDatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.StateFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (stateStore, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.StateDatabaseDSN,
			cfg.DBConnectionTimeout,
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.StateFileName)
	}

	return memorystorage.New()
}
