package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/geohop/internal/relay/http"
	"github.com/aussiebroadwan/geohop/internal/relay/service"
	"github.com/aussiebroadwan/geohop/internal/relay/store"
	"github.com/aussiebroadwan/geohop/internal/relay/store/drivers/memory"
	"github.com/aussiebroadwan/geohop/internal/relay/store/drivers/redis"
	"github.com/aussiebroadwan/geohop/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application is the reference relay with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	sessions store.Sessions

	sessionService *service.SessionService
	sweepService   *service.SweepService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "relay",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler returns the relay's HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	ln, err := net.Listen("tcp", app.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", app.server.Addr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Serve(ctx, ln)
}

// Serve runs the relay on ln until ctx is cancelled, then shuts down
// gracefully.
func (app *Application) Serve(ctx context.Context, ln net.Listener) error {
	app.sweepService.Start()

	app.logger.Info("relay starting",
		"addr", ln.Addr().String(),
		"region", app.cfg.Region,
		"session_store", app.cfg.SessionStore,
		"version", BuildVersion,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		app.sweepService.Stop()
		_ = app.sessions.Close()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		app.logger.Info("shutdown signal received")

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down relay...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.sweepService.Stop()

	if err := app.sessions.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
		return err
	}

	app.logger.Info("relay stopped")
	return nil
}

func (app *Application) initStore() error {
	switch app.cfg.SessionStore {
	case "memory", "":
		app.sessions = memory.New()
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		st, err := redis.New(ctx, app.cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("failed to initialize session store: %w", err)
		}
		app.sessions = st
	default:
		return fmt.Errorf("unknown session store %q", app.cfg.SessionStore)
	}

	app.logger.Info("session store ready", "driver", app.cfg.SessionStore)
	return nil
}

func (app *Application) initServices() {
	app.sessionService = &service.SessionService{
		Store:  app.sessions,
		Region: app.cfg.Region,
	}

	app.sweepService = service.NewSweepService(
		app.sessions,
		app.logger,
		app.cfg.SweepInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		httpapi.Identity{
			Region:   app.cfg.Region,
			Country:  app.cfg.Country,
			PublicIP: app.cfg.PublicIP,
		},
		BuildVersion,
		app.sessions,
		app.logger,
	)

	router.SessionService = app.sessionService
	router.Upstream = &http.Client{Timeout: app.cfg.UpstreamTimeout}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
