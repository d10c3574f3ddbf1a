package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Raikerian/go-voice-enhancer/internal/enhance"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ENHANCER_"

// HTTPConfig stores the HTTP listener settings.
type HTTPConfig struct {
	Address         string        `yaml:"address"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// WorkerConfig bounds concurrent pipeline runs. MaxConcurrent 0 means one
// slot per CPU.
type WorkerConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent"`
	QueueTimeout  time.Duration `yaml:"queue_timeout"`
}

// CacheConfig sizes the result cache. Size 0 disables caching.
type CacheConfig struct {
	Size int `yaml:"size"`
}

// Config stores the application configuration.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	HTTP     HTTPConfig     `yaml:"http"`
	Worker   WorkerConfig   `yaml:"worker"`
	Cache    CacheConfig    `yaml:"cache"`
	Enhance  enhance.Config `yaml:"enhance"`
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	return Config{
		LogLevel: "info",
		HTTP: HTTPConfig{
			Address:         ":8080",
			MaxBodyBytes:    64 << 20,
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Worker: WorkerConfig{
			QueueTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Size: 128,
		},
		Enhance: enhance.DefaultConfig(),
	}
}

// LoadConfig loads the configuration from the given file path, then applies
// a .env file from the working directory if present and ENHANCER_*
// environment overrides.
func LoadConfig(filePath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return Load(filePath, os.LookupEnv)
}

// Load reads filePath over the defaults and applies overrides found through
// lookup. An empty filePath skips the file.
func Load(filePath string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", filePath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", filePath, err)
		}
	}

	if err := applyEnv(lookup, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log_level must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	if strings.TrimSpace(c.HTTP.Address) == "" {
		return errors.New("config: http.address is required")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("config: http.max_body_bytes must be positive, got %d", c.HTTP.MaxBodyBytes)
	}
	if c.Worker.MaxConcurrent < 0 {
		return fmt.Errorf("config: worker.max_concurrent must not be negative, got %d", c.Worker.MaxConcurrent)
	}
	if c.Worker.QueueTimeout < 0 {
		return fmt.Errorf("config: worker.queue_timeout must not be negative, got %s", c.Worker.QueueTimeout)
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("config: cache.size must not be negative, got %d", c.Cache.Size)
	}
	if err := c.Enhance.Validate(); err != nil {
		return fmt.Errorf("config: enhance.%w", err)
	}
	return nil
}

func applyEnv(lookup func(string) (string, bool), cfg *Config) error {
	overrideString(lookup, EnvPrefix+"LOG_LEVEL", &cfg.LogLevel)
	overrideString(lookup, EnvPrefix+"HTTP_ADDRESS", &cfg.HTTP.Address)

	if err := overrideInt64(lookup, EnvPrefix+"HTTP_MAX_BODY_BYTES", &cfg.HTTP.MaxBodyBytes); err != nil {
		return err
	}

	durations := map[string]*time.Duration{
		"HTTP_READ_TIMEOUT":    &cfg.HTTP.ReadTimeout,
		"WORKER_QUEUE_TIMEOUT": &cfg.Worker.QueueTimeout,
		"PROFILE_WINDOW":       &cfg.Enhance.ProfileWindow,
		"ATTACK":               &cfg.Enhance.Attack,
		"RELEASE":              &cfg.Enhance.Release,
	}
	for key, target := range durations {
		if err := overrideDuration(lookup, EnvPrefix+key, target); err != nil {
			return err
		}
	}

	ints := map[string]*int{
		"WORKER_MAX_CONCURRENT": &cfg.Worker.MaxConcurrent,
		"CACHE_SIZE":            &cfg.Cache.Size,
	}
	for key, target := range ints {
		if err := overrideInt(lookup, EnvPrefix+key, target); err != nil {
			return err
		}
	}

	floats := map[string]*float64{
		"THRESHOLD_BOOST_DB": &cfg.Enhance.ThresholdBoostDB,
		"REDUCTION_FACTOR":   &cfg.Enhance.ReductionFactor,
		"LIMITER_CEILING":    &cfg.Enhance.LimiterCeiling,
	}
	for key, target := range floats {
		if err := overrideFloat(lookup, EnvPrefix+key, target); err != nil {
			return err
		}
	}

	return nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideFloat(lookup func(string) (string, bool), key string, target *float64) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func overrideInt64(lookup func(string) (string, bool), key string, target *int64) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func overrideDuration(lookup func(string) (string, bool), key string, target *time.Duration) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}
