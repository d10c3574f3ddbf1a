// Package httpapi exposes the enhancement service over HTTP.
package httpapi

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-voice-enhancer/internal/config"
	"github.com/Raikerian/go-voice-enhancer/internal/metrics"
	"github.com/Raikerian/go-voice-enhancer/internal/processing"
)

// Module provides the router and the HTTP server bound to the fx lifecycle.
var Module = fx.Module("httpapi",
	fx.Provide(
		NewRouter,
		NewServer,
	),
	fx.Invoke(registerServerLifecycle),
)

const (
	HeaderRequestID     = "X-Request-Id"
	HeaderDuration      = "X-Audio-Duration-Seconds"
	HeaderSampleRate    = "X-Audio-Sample-Rate"
	HeaderChannels      = "X-Audio-Channels"
	HeaderBitsPerSample = "X-Audio-Bits-Per-Sample"
	HeaderOutcome       = "X-Enhance-Outcome"
	HeaderNoiseFloor    = "X-Noise-Floor-Db"

	requestIDKey = "request_id"
)

// RouterParams holds dependencies for NewRouter.
type RouterParams struct {
	fx.In
	Cfg     *config.Config
	Service *processing.Service
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// NewRouter builds the gin engine with request IDs, access logging and
// metrics middleware.
func NewRouter(params RouterParams) *gin.Engine {
	if params.Cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestIDMiddleware())
	engine.Use(loggingMiddleware(params.Logger))
	engine.Use(metricsMiddleware(params.Metrics))

	h := &handlers{
		service:      params.Service,
		logger:       params.Logger,
		maxBodyBytes: params.Cfg.HTTP.MaxBodyBytes,
	}

	v1 := engine.Group("/v1")
	v1.POST("/enhance", h.enhance)
	v1.POST("/analyze", h.analyze)

	engine.GET("/healthz", h.healthz)
	engine.GET("/metrics", gin.WrapH(params.Metrics.Handler()))

	return engine
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("HTTP request",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int("response_bytes", c.Writer.Size()),
			zap.Duration("duration", time.Since(start)))
	}
}

func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
