package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-voice-enhancer/internal/config"
)

// NewServer creates the HTTP server for the router.
func NewServer(cfg *config.Config, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
	}
}

// ServerLifecycleParams holds dependencies for registerServerLifecycle.
type ServerLifecycleParams struct {
	fx.In
	LC     fx.Lifecycle
	Cfg    *config.Config
	Server *http.Server
	Logger *zap.Logger
}

// registerServerLifecycle binds the listener on start and drains in-flight
// requests on stop.
func registerServerLifecycle(params ServerLifecycleParams) {
	params.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", params.Server.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", params.Server.Addr, err)
			}
			params.Logger.Info("HTTP server listening", zap.String("address", ln.Addr().String()))

			go func() {
				if err := params.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					params.Logger.Error("HTTP server stopped unexpectedly", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, params.Cfg.HTTP.ShutdownTimeout)
			defer cancel()

			if err := params.Server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down HTTP server: %w", err)
			}
			params.Logger.Info("HTTP server stopped")
			return nil
		},
	})
}
