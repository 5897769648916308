package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/marianozunino/ofu/internal/config"
	"github.com/marianozunino/ofu/internal/handler"
	middie "github.com/marianozunino/ofu/internal/middleware"
	"github.com/marianozunino/ofu/internal/naming"
	"github.com/marianozunino/ofu/internal/purge"
	"github.com/marianozunino/ofu/internal/upload"
)

// App represents the application
type App struct {
	server    *echo.Echo
	scheduler *purge.Scheduler
	services  *Services
	config    *config.Config
	log       *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	if cfg.Debug {
		log.Debugf("Configuration:\n%s", spew.Sdump(redacted(cfg)))
	}

	services, err := NewServices(cfg, log)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Configure timeouts for large file uploads
	e.Server.ReadTimeout = 10 * time.Minute
	e.Server.WriteTimeout = 10 * time.Minute
	e.Server.IdleTimeout = 15 * time.Minute
	e.Server.ReadHeaderTimeout = 30 * time.Second

	log.Debugw("Server timeouts configured",
		"read", e.Server.ReadTimeout,
		"write", e.Server.WriteTimeout,
		"idle", e.Server.IdleTimeout,
	)

	app := &App{
		server:   e,
		services: services,
		config:   cfg,
		log:      log,
	}
	if cfg.PurgeEnabled {
		app.scheduler = purge.NewScheduler(services.Purger, services.CheckInterval(), log)
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middie.RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middie.SecurityHeaders())
	if cfg.AuthEnabled() {
		e.Use(middie.BasicAuth(cfg.AuthUser, cfg.AuthPassword))
	}

	registerRoutes(e, app)
	return app, nil
}

// Start starts the application. The returned channel receives the error
// if the server fails to start or stops unexpectedly, and is closed once
// the server has exited.
func (a *App) Start() <-chan error {
	if a.scheduler != nil {
		a.scheduler.Start()
	}

	serverAddr := fmt.Sprintf(":%d", a.config.Port)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		if err := a.server.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Errorw("Server stopped", "error", err)
			errs <- err
		}
	}()

	a.log.Infof("Server started on %s", serverAddr)
	return errs
}

// Stop stops all application services
func (a *App) Stop() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
}

// Shutdown gracefully shuts down the server
func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// registerRoutes registers all HTTP routes
func registerRoutes(e *echo.Echo, app *App) {
	s := app.services
	h := handler.NewHandler(handler.Deps{
		Config:    s.Config,
		Policy:    s.Policy,
		Validator: upload.NewValidator(s.Config),
		Store:     upload.NewStore(s.Root, naming.New(s.Config.NameLength), s.Journals.Upload, app.log),
		Root:      s.Root,
		ErrorLog:  s.Journals.Error,
		Metrics:   s.Metrics,
		Logger:    app.log,
	})

	e.GET("/", h.HandleHome)
	e.POST("/", h.HandleUpload)

	if app.config.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})))
	}

	e.GET("/:name", h.HandleFile)
	e.HEAD("/:name", h.HandleFile)
}

// redacted returns a copy of cfg safe to print.
func redacted(cfg *config.Config) config.Config {
	c := *cfg
	if c.AuthPassword != "" {
		c.AuthPassword = "********"
	}
	return c
}
