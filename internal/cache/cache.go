// Package cache memoises pipeline results so a client re-sending the same
// recording with the same parameters gets the stored answer.
package cache

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-voice-enhancer/internal/config"
	"github.com/Raikerian/go-voice-enhancer/internal/enhance"
)

// Module provides the ResultCache.
var Module = fx.Module("cache",
	fx.Provide(NewResultCacheProvider),
)

// ResultCache holds the LRU cache of pipeline results. A nil *ResultCache
// is a valid, always-empty cache.
type ResultCache struct {
	*lru.Cache[string, enhance.Result]
}

// NewResultCache creates a ResultCache with the given size.
func NewResultCache(size int) (*ResultCache, error) {
	lruCache, err := lru.New[string, enhance.Result](size)
	if err != nil {
		return nil, err
	}

	return &ResultCache{
		Cache: lruCache,
	}, nil
}

// NewResultCacheProvider creates the cache from the cache section. A size of
// zero disables caching.
func NewResultCacheProvider(cfg *config.Config, logger *zap.Logger) (*ResultCache, error) {
	size := cfg.Cache.Size
	if size <= 0 {
		logger.Info("Result cache disabled")
		return nil, nil
	}
	logger.Info("Creating ResultCache", zap.Int("size", size))

	return NewResultCache(size)
}

// Key identifies input processed with cfg.
func Key(input []byte, cfg enhance.Config) string {
	h := sha256.New()
	h.Write(input)
	h.Write([]byte{0})
	h.Write([]byte(cfg.Fingerprint()))
	return hex.EncodeToString(h.Sum(nil))
}

// Get looks up a key's value from the cache.
func (rc *ResultCache) Get(key string) (enhance.Result, bool) {
	if rc == nil {
		return enhance.Result{}, false
	}
	return rc.Cache.Get(key)
}

// Add stores a result. Only processed results are kept: a passthrough
// result aliases the caller's input buffer.
func (rc *ResultCache) Add(key string, res enhance.Result) {
	if rc == nil || !res.Processed() {
		return
	}
	rc.Cache.Add(key, res)
}

// Len returns the number of items in the cache.
func (rc *ResultCache) Len() int {
	if rc == nil {
		return 0
	}
	return rc.Cache.Len()
}
