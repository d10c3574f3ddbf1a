package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Raikerian/go-voice-enhancer/internal/enhance"
	"github.com/Raikerian/go-voice-enhancer/internal/processing"
	"github.com/Raikerian/go-voice-enhancer/internal/worker"
)

type handlers struct {
	service      *processing.Service
	logger       *zap.Logger
	maxBodyBytes int64
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

type analyzeResponse struct {
	RequestID string `json:"request_id"`
	enhance.Analysis
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

func (h *handlers) enhance(c *gin.Context) {
	cfg, err := overrides(c, h.service.Defaults())
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	input, ok := h.readBody(c)
	if !ok {
		return
	}

	res, err := h.service.Enhance(c.Request.Context(), input, cfg)
	if err != nil {
		h.failBusy(c, err)
		return
	}

	d := res.Descriptor
	c.Header(HeaderDuration, strconv.FormatFloat(d.DurationSeconds, 'f', -1, 64))
	c.Header(HeaderSampleRate, strconv.FormatUint(uint64(d.SampleRate), 10))
	c.Header(HeaderChannels, strconv.FormatUint(uint64(d.NumChannels), 10))
	c.Header(HeaderBitsPerSample, strconv.FormatUint(uint64(d.BitsPerSample), 10))
	c.Header(HeaderOutcome, res.Outcome.String())
	if res.Profile != nil {
		c.Header(HeaderNoiseFloor, strconv.FormatFloat(res.Profile.NoiseFloorDB, 'f', 2, 64))
	}

	contentType := res.ContentType
	if contentType == "" {
		contentType = c.ContentType()
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if res.Err != nil {
		h.logger.Info("Returning original audio",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Stringer("outcome", res.Outcome),
			zap.Error(res.Err))
	}

	c.Data(http.StatusOK, contentType, res.Output)
}

func (h *handlers) analyze(c *gin.Context) {
	input, ok := h.readBody(c)
	if !ok {
		return
	}

	a, err := h.service.Analyze(c.Request.Context(), input)
	if err != nil {
		h.failBusy(c, err)
		return
	}

	resp := analyzeResponse{
		RequestID: c.GetString(requestIDKey),
		Analysis:  a,
		Outcome:   a.Outcome.String(),
	}
	if a.Err != nil {
		resp.Error = a.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) readBody(c *gin.Context) ([]byte, bool) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	input, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, http.StatusRequestEntityTooLarge, fmt.Errorf("body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		h.fail(c, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return nil, false
	}
	return input, true
}

func (h *handlers) failBusy(c *gin.Context, err error) {
	switch {
	case errors.Is(err, worker.ErrQueueTimeout), errors.Is(err, context.DeadlineExceeded):
		c.Header("Retry-After", "1")
		h.fail(c, http.StatusServiceUnavailable, err)
	case errors.Is(err, context.Canceled):
		// Client went away; nobody will read the response.
		c.Status(http.StatusServiceUnavailable)
	default:
		h.fail(c, http.StatusInternalServerError, err)
	}
}

func (h *handlers) fail(c *gin.Context, status int, err error) {
	id := c.GetString(requestIDKey)
	h.logger.Warn("Request failed",
		zap.String("request_id", id),
		zap.Int("status", status),
		zap.Error(err))
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error(), RequestID: id})
}

// overrides applies per-request parameter overrides from the query string
// on top of base.
func overrides(c *gin.Context, base enhance.Config) (enhance.Config, error) {
	cfg := base

	floats := []struct {
		key    string
		target *float64
	}{
		{"threshold_boost_db", &cfg.ThresholdBoostDB},
		{"reduction_factor", &cfg.ReductionFactor},
	}
	for _, f := range floats {
		if raw, ok := c.GetQuery(f.key); ok {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return base, fmt.Errorf("invalid %s: %q", f.key, raw)
			}
			*f.target = v
		}
	}

	millis := []struct {
		key    string
		target *time.Duration
	}{
		{"attack_ms", &cfg.Attack},
		{"release_ms", &cfg.Release},
		{"profile_window_ms", &cfg.ProfileWindow},
	}
	for _, m := range millis {
		if raw, ok := c.GetQuery(m.key); ok {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return base, fmt.Errorf("invalid %s: %q", m.key, raw)
			}
			*m.target = time.Duration(v * float64(time.Millisecond))
		}
	}

	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}
