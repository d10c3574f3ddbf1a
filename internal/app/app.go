// Package app provides the main application structure and lifecycle management.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-voice-enhancer/internal/cache"
	"github.com/Raikerian/go-voice-enhancer/internal/config"
	"github.com/Raikerian/go-voice-enhancer/internal/enhance"
	"github.com/Raikerian/go-voice-enhancer/internal/httpapi"
	"github.com/Raikerian/go-voice-enhancer/internal/infrastructure"
	"github.com/Raikerian/go-voice-enhancer/internal/metrics"
	"github.com/Raikerian/go-voice-enhancer/internal/processing"
	"github.com/Raikerian/go-voice-enhancer/internal/worker"
)

// Application represents the main application with its lifecycle.
type Application struct {
	app *fx.App
}

// Modules returns every module of the service in dependency order.
func Modules() fx.Option {
	return fx.Options(
		// Core modules
		config.Module,
		infrastructure.LoggerModule,
		metrics.Module,

		// Processing modules
		enhance.Module,
		worker.Module,
		cache.Module,
		processing.Module,

		// Transport
		httpapi.Module,
	)
}

// New creates a new Application with the provided modules and options.
func New(modules ...fx.Option) *Application {
	options := append(modules, fx.Invoke(registerLifecycleHooks))

	return &Application{
		app: fx.New(options...),
	}
}

// Err returns the error fx hit while building the graph, if any.
func (a *Application) Err() error {
	return a.app.Err()
}

// Run starts the application and blocks until it's stopped.
func (a *Application) Run() {
	a.app.Run()
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	return a.app.Stop(ctx)
}

// registerLifecycleHooks logs the effective setup once everything is wired.
func registerLifecycleHooks(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config, pool *worker.Pool) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Application started",
				zap.String("address", cfg.HTTP.Address),
				zap.Int("worker_slots", pool.Size()),
				zap.Int("cache_size", cfg.Cache.Size),
				zap.Int64("max_body_bytes", cfg.HTTP.MaxBodyBytes))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Application stopped")
			return nil
		},
	})
}
