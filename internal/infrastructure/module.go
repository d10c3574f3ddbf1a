// Package infrastructure provides logging for the service and the CLI and
// routes fx's own events through the same logger.
package infrastructure

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Raikerian/go-voice-enhancer/internal/config"
)

// LoggerModule provides logging infrastructure.
var LoggerModule = fx.Module("logger",
	fx.Provide(NewZapLogger),
)

// NewZapLoggerParams holds dependencies for NewZapLogger.
type NewZapLoggerParams struct {
	fx.In
	Cfg *config.Config
	LC  fx.Lifecycle
}

// NewZapLogger creates the service logger and syncs it on shutdown.
func NewZapLogger(params NewZapLoggerParams) (*zap.Logger, error) {
	logger, err := NewLogger(params.Cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	params.LC.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// Sync on a terminal stderr returns ENOTTY; nothing to report.
			_ = logger.Sync()
			return nil
		},
	})

	return logger, nil
}

// NewLogger builds a zap logger for a log level name. "debug" selects the
// development encoder; every other level uses the production JSON encoder.
func NewLogger(level string) (*zap.Logger, error) {
	var zapConfig zap.Config
	switch level {
	case "debug":
		zapConfig = zap.NewDevelopmentConfig()
	case "warn":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create zap logger: %w", err)
	}
	return logger, nil
}
