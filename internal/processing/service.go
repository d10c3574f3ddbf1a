// Package processing runs the enhancement pipeline for the transport layer:
// it bounds concurrency with the worker pool, consults the result cache and
// records metrics.
package processing

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-voice-enhancer/internal/cache"
	"github.com/Raikerian/go-voice-enhancer/internal/enhance"
	"github.com/Raikerian/go-voice-enhancer/internal/metrics"
	"github.com/Raikerian/go-voice-enhancer/internal/worker"
)

// Module provides the processing Service.
var Module = fx.Module("processing",
	fx.Provide(NewService),
)

// ServiceParams holds dependencies for NewService.
type ServiceParams struct {
	fx.In
	Pipeline *enhance.Pipeline
	Pool     *worker.Pool
	Cache    *cache.ResultCache `optional:"true"`
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Service is the entry point used by the HTTP handlers.
type Service struct {
	pipeline *enhance.Pipeline
	pool     *worker.Pool
	cache    *cache.ResultCache
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewService creates a Service.
func NewService(params ServiceParams) *Service {
	return &Service{
		pipeline: params.Pipeline,
		pool:     params.Pool,
		cache:    params.Cache,
		metrics:  params.Metrics,
		logger:   params.Logger,
	}
}

// Defaults returns the pipeline parameters used when a request overrides
// nothing.
func (s *Service) Defaults() enhance.Config {
	return s.pipeline.Config()
}

// Enhance runs the pipeline on input with cfg. The only errors are from
// waiting for a worker slot; the Result itself is always usable. The Output
// of a cached Result is shared and must not be modified.
func (s *Service) Enhance(ctx context.Context, input []byte, cfg enhance.Config) (enhance.Result, error) {
	var key string
	if s.cache != nil {
		key = cache.Key(input, cfg)
		if res, ok := s.cache.Get(key); ok {
			s.metrics.CacheHits.Inc()
			s.logger.Debug("Serving cached result", zap.String("key", key[:16]))
			return res, nil
		}
		s.metrics.CacheMisses.Inc()
	}

	var res enhance.Result
	err := s.pool.Run(ctx, func() {
		start := time.Now()
		res = s.pipeline.ProcessWith(input, cfg)
		s.metrics.ObserveRun(res.Outcome.String(), len(input), time.Since(start))
		if res.Profile != nil {
			s.metrics.NoiseFloor.Observe(res.Profile.NoiseFloorDB)
		}
	})
	if err != nil {
		return enhance.Result{}, err
	}

	s.cache.Add(key, res)
	return res, nil
}

// Analyze describes input without producing audio.
func (s *Service) Analyze(ctx context.Context, input []byte) (enhance.Analysis, error) {
	var a enhance.Analysis
	err := s.pool.Run(ctx, func() {
		a = s.pipeline.Analyze(input)
	})
	return a, err
}
