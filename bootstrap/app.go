package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"backend/api"
	"backend/config"
	"backend/storage"
	"backend/util/goroutine"

	"go.uber.org/zap"
)

// connectDrainTimeout bounds how long Shutdown waits for an in-flight
// connection attempt after cancelling it.
const connectDrainTimeout = 5 * time.Second

// App represents the backend application with all its components.
type App struct {
	// Configuration
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	// Storage
	DB *storage.Connection

	// Services
	APIServer   *api.API
	AdminServer *api.Admin

	// Lifecycle
	listener      net.Listener
	adminListener net.Listener
	connectCancel context.CancelFunc
	serviceWg     *sync.WaitGroup
	shutdownOnce  sync.Once
}

// NewApp creates a new application instance from the environment and the
// optional config file.
func NewApp(ctx context.Context, configFile string) (*App, error) {
	cfg, err := InitConfig(configFile)
	if err != nil {
		return nil, err
	}

	logger, _, err := InitLogger(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return NewAppWithConfig(cfg, logger), nil
}

// NewAppWithConfig creates an application from an already resolved config and logger.
func NewAppWithConfig(cfg *config.Config, logger *zap.Logger) *App {
	app := &App{
		Config:    cfg,
		Logger:    logger,
		Sugar:     logger.Sugar(),
		serviceWg: &sync.WaitGroup{},
	}
	app.Sugar.Info("Backend starting...")
	logConfig(cfg, app.Sugar)
	return app
}

// Start starts the database connection attempt and the HTTP listeners.
//
// The connection attempt runs in the background and never fails Start.
// A listener that cannot bind is returned as an error.
func (a *App) Start(ctx context.Context) error {
	connectCtx, cancel := context.WithCancel(ctx)
	a.connectCancel = cancel
	a.DB = storage.ConnectAsync(connectCtx, a.Config, a.Sugar)

	if err := a.startAPIServer(); err != nil {
		return err
	}
	if err := a.startAdminServer(); err != nil {
		return err
	}
	return nil
}

// startAPIServer binds the application port and serves on it.
func (a *App) startAPIServer() error {
	a.APIServer = api.NewAPI(a.Config, a.Sugar)

	ln, err := a.APIServer.Listen(a.Config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", a.Config.Port, err)
	}
	a.listener = ln
	a.Sugar.Infof("Server running on port %s", listenerPort(ln, a.Config.Port))

	goroutine.Go(a.serviceWg, "api-server", a.Sugar, func() {
		if err := a.APIServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Sugar.Errorf("API server error: %v", err)
		}
	})
	return nil
}

// startAdminServer starts the health and metrics listener when admin.port is set.
func (a *App) startAdminServer() error {
	addr := a.Config.AdminAddr()
	if addr == "" {
		a.Sugar.Debug("Admin listener disabled")
		return nil
	}

	a.AdminServer = api.NewAdmin(a.DB, a.Sugar)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on admin port %s: %w", a.Config.Admin.Port, err)
	}
	a.adminListener = ln
	a.Sugar.Infof("Admin server running on port %s", listenerPort(ln, a.Config.Admin.Port))

	goroutine.Go(a.serviceWg, "admin-server", a.Sugar, func() {
		if err := a.AdminServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Sugar.Errorf("Admin server error: %v", err)
		}
	})
	return nil
}

// ListenAddr returns the bound API address, or nil before Start.
func (a *App) ListenAddr() net.Addr {
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// AdminListenAddr returns the bound admin address, or nil when the admin listener is not running.
func (a *App) AdminListenAddr() net.Addr {
	if a.adminListener == nil {
		return nil
	}
	return a.adminListener.Addr()
}

// WaitForShutdown blocks until a shutdown signal is received.
func (a *App) WaitForShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)
	sig := <-c
	a.Sugar.Infow("Shutdown signal received", "signal", sig.String())
}

// Shutdown gracefully shuts down all components. It is safe to call more than
// once and after a failed Start.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(a.shutdown)
}

func (a *App) shutdown() {
	a.Sugar.Info("Shutting down...")

	// Phase 1 - Stop HTTP servers
	a.Sugar.Info("Phase 1: Stopping HTTP servers...")
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.API.ShutdownTimeout)
	defer cancel()
	if a.APIServer != nil {
		if err := a.APIServer.Stop(ctx); err != nil {
			a.Sugar.Errorw("Failed to stop API server", "error", err)
		}
	}
	if a.AdminServer != nil {
		if err := a.AdminServer.Stop(ctx); err != nil {
			a.Sugar.Errorw("Failed to stop admin server", "error", err)
		}
	}

	// Phase 2 - Wait for service goroutines
	a.Sugar.Info("Phase 2: Waiting for service goroutines to complete...")
	done := make(chan struct{})
	go func() {
		a.serviceWg.Wait()
		close(done)
	}()
	select {
	case <-done:
		a.Sugar.Info("All service goroutines stopped successfully")
	case <-time.After(a.Config.API.ShutdownTimeout + 5*time.Second):
		a.Sugar.Warn("Service goroutine shutdown timed out")
	}

	// Phase 3 - Abandon a pending connection attempt
	a.Sugar.Info("Phase 3: Cancelling pending MongoDB connection attempt...")
	if a.connectCancel != nil {
		a.connectCancel()
	}

	// Phase 4 - Close database connection
	a.Sugar.Info("Phase 4: Closing database connection...")
	if a.DB != nil {
		waitCtx, waitCancel := context.WithTimeout(context.Background(), connectDrainTimeout)
		if err := a.DB.Wait(waitCtx); err != nil && waitCtx.Err() != nil {
			a.Sugar.Warn("MongoDB connection attempt still pending at shutdown")
		}
		waitCancel()

		closeCtx, closeCancel := context.WithTimeout(context.Background(), connectDrainTimeout)
		if err := a.DB.Close(closeCtx); err != nil {
			a.Sugar.Errorw("Failed to close MongoDB connection", "error", err)
		}
		closeCancel()
	}

	a.Sugar.Info("Shutdown complete")
	_ = a.Logger.Sync()
}

// listenerPort reports the port actually bound, falling back to the configured value.
func listenerPort(ln net.Listener, configured string) string {
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		return strconv.Itoa(tcp.Port)
	}
	return configured
}
