// Package server initializes and runs the messaging server: it connects
// storage backends, applies migrations, wires services to the HTTP/WebSocket
// endpoint and handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/guvenli/messenger/internal/crypt"
	"github.com/guvenli/messenger/internal/dbx"
	"github.com/guvenli/messenger/internal/logging"
	"github.com/guvenli/messenger/internal/server/clock"
	"github.com/guvenli/messenger/internal/server/config"
	"github.com/guvenli/messenger/internal/server/filestore"
	"github.com/guvenli/messenger/internal/server/httpapi"
	"github.com/guvenli/messenger/internal/server/messaging"
	"github.com/guvenli/messenger/internal/server/objstore"
	"github.com/guvenli/messenger/internal/server/repositories/repomanager"
	"github.com/guvenli/messenger/internal/server/ws"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	handler http.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewDefault()

	db, err := dbx.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	store, err := objstore.NewS3Store(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	registry := ws.NewRegistry(logger)
	clk := clock.System{}

	messagingSvc := messaging.NewService(rm.Messages(db), rm.Users(db), crypt.NewRegistry(),
		registry, clk, logger)
	filesSvc := filestore.NewService(rm.Blobs(db), store, clk, logger)

	srv := httpapi.NewServer(messagingSvc, filesSvc, registry, []byte(cfg.SecretKey), logger)

	return &App{config: cfg, logger: logger, handler: srv.Router()}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until the context is cancelled or a signal arrives, then
// drains connections within the configured shutdown timeout.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	httpServer := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.handler,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "server listening", "addr", app.config.EndpointAddrHTTP)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
