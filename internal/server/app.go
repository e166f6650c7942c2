// Package server wires the snipbin components together and runs the HTTP API
// until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/snipbin/internal/dbx"
	"github.com/dmitrijs2005/snipbin/internal/logging"
	"github.com/dmitrijs2005/snipbin/internal/server/auth"
	"github.com/dmitrijs2005/snipbin/internal/server/config"
	"github.com/dmitrijs2005/snipbin/internal/server/httpapi"
	"github.com/dmitrijs2005/snipbin/internal/server/mail"
	"github.com/dmitrijs2005/snipbin/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/snipbin/internal/server/services"
	"github.com/dmitrijs2005/snipbin/internal/server/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var openDB = sql.Open

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

// NewApp builds the storage backend, the credential codec and the services
// described by c. ctx bounds background work such as JWKS refreshes.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogLevel, c.LogFormat, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	app := &App{config: c, logger: logger}

	tx, rm, err := app.initStorage(ctx)
	if err != nil {
		return nil, err
	}

	kf, err := auth.NewKeyfunc(ctx, c)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("key source init error: %w", err)
	}
	codec, err := auth.NewCodec(c, kf, nil)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("codec init error: %w", err)
	}

	var postOpts []services.PostOption
	if c.S3Bucket != "" {
		store, err := storage.NewS3Store(ctx, c)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		postOpts = append(postOpts, services.WithContentStore(store))
	}

	ps := services.NewPostService(tx, rm, c, logger, postOpts...)
	as, err := services.NewAccountService(tx, rm, codec, mail.NewLogSender(logger), c, logger)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("accounts init error: %w", err)
	}
	v := auth.NewValidator(codec, rm.Accounts(tx.Conn()), c)

	app.server = httpapi.NewServer(c, logger, ps, as, v, codec.Lifetime())
	return app, nil
}

func (app *App) initStorage(ctx context.Context) (dbx.Transactor, repomanager.RepositoryManager, error) {
	switch app.config.Storage {
	case config.StorageMemory:
		return dbx.NewLockTransactor(), repomanager.NewMemoryRepositoryManager(), nil

	case config.StoragePostgres:
		db, err := openDB("pgx", app.config.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}

		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrations error: %w", err)
		}

		app.db = db
		return dbx.NewSQLTransactor(db), rm, nil
	}

	return nil, nil, fmt.Errorf("unknown storage %q", app.config.Storage)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddrHTTP, "storage", app.config.Storage)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "close db", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}

// Close releases the database handle, if any.
func (app *App) Close() error {
	if app.db == nil {
		return nil
	}
	err := app.db.Close()
	app.db = nil
	return err
}
