package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"sensor-alert-service/internal/logging"
	"sensor-alert-service/internal/metrics"
	"sensor-alert-service/internal/models"
)

const (
	currentConfigKey    = "sensor-alert:config:current"
	configGenerationKey = "sensor-alert:config:generation"
)

// ConfigStore is the store of record for threshold configs.
type ConfigStore interface {
	GetCurrentConfig(ctx context.Context) (*models.ThresholdConfig, error)
	ReplaceActiveConfig(ctx context.Context, cfg *models.ThresholdConfig) (*models.ThresholdConfig, error)
	ListConfigVersions(ctx context.Context, limit int) ([]models.ThresholdConfig, error)
}

// CachedConfigStore is a read-through cache in front of a ConfigStore.
// Writes go to the inner store first, then bump a generation counter and
// invalidate the cached entry. A reader only writes back what it loaded if the
// generation it saw before loading is still current.
type CachedConfigStore struct {
	inner  ConfigStore
	kv     KVStore
	ttl    time.Duration
	logger *logging.Logger
}

func NewCachedConfigStore(inner ConfigStore, kv KVStore, ttl time.Duration, logger *logging.Logger) *CachedConfigStore {
	return &CachedConfigStore{inner: inner, kv: kv, ttl: ttl, logger: logger}
}

func (c *CachedConfigStore) GetCurrentConfig(ctx context.Context) (*models.ThresholdConfig, error) {
	raw, err := c.kv.Get(ctx, currentConfigKey)
	switch {
	case err == nil:
		var cfg models.ThresholdConfig
		jerr := json.Unmarshal([]byte(raw), &cfg)
		if jerr == nil {
			metrics.ConfigCacheRequests.WithLabelValues("hit").Inc()
			return &cfg, nil
		}
		c.logger.Warnf("Discarding undecodable cached config: %v", jerr)
		metrics.ConfigCacheRequests.WithLabelValues("error").Inc()
	case errors.Is(err, ErrCacheMiss):
		metrics.ConfigCacheRequests.WithLabelValues("miss").Inc()
	default:
		c.logger.Warnf("Config cache read failed, falling back to store: %v", err)
		metrics.ConfigCacheRequests.WithLabelValues("error").Inc()
	}

	gen, genErr := c.kv.Get(ctx, configGenerationKey)
	if errors.Is(genErr, ErrCacheMiss) {
		gen, genErr = "", nil
	}

	cfg, err := c.inner.GetCurrentConfig(ctx)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		c.store(ctx, gen, cfg)
	}
	return cfg, nil
}

func (c *CachedConfigStore) ReplaceActiveConfig(ctx context.Context, cfg *models.ThresholdConfig) (*models.ThresholdConfig, error) {
	saved, err := c.inner.ReplaceActiveConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gen, err := c.kv.Incr(ctx, configGenerationKey)
	if err != nil {
		return nil, fmt.Errorf("config %d saved but cache invalidation failed: %w", saved.ID, err)
	}
	if err := c.kv.Del(ctx, currentConfigKey); err != nil {
		return nil, fmt.Errorf("config %d saved but cache invalidation failed: %w", saved.ID, err)
	}
	c.store(ctx, strconv.FormatInt(gen, 10), saved)
	return saved, nil
}

func (c *CachedConfigStore) ListConfigVersions(ctx context.Context, limit int) ([]models.ThresholdConfig, error) {
	return c.inner.ListConfigVersions(ctx, limit)
}

// store caches cfg unless the generation moved past gen since it was loaded.
func (c *CachedConfigStore) store(ctx context.Context, gen string, cfg *models.ThresholdConfig) {
	data, err := json.Marshal(cfg)
	if err != nil {
		c.logger.Errorf("Failed to encode config %d for cache: %v", cfg.ID, err)
		return
	}
	ok, err := c.kv.SetIfUnchanged(ctx, configGenerationKey, gen, currentConfigKey, string(data), c.ttl)
	if err != nil {
		c.logger.Warnf("Failed to cache config %d: %v", cfg.ID, err)
		return
	}
	if !ok {
		c.logger.Debugf("Skipped caching config %d: superseded by a newer write", cfg.ID)
	}
}
