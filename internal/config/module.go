// Package config provides configuration infrastructure and Fx modules.
package config

import (
	"go.uber.org/fx"

	"github.com/Raikerian/go-voice-enhancer/internal/enhance"
)

// Module provides configuration dependencies.
var Module = fx.Module("config",
	fx.Provide(
		LoadConfig,
		EnhanceConfig,
	),
)

// EnhanceConfig exposes the pipeline defaults to the enhance module.
func EnhanceConfig(cfg *Config) enhance.Config {
	return cfg.Enhance
}
