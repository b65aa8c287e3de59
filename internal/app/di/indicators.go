package di

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"indicator_backend/internal/feature/indicators/usecase"
	"indicator_backend/internal/platform/cache"
	"indicator_backend/internal/platform/metrics"
)

// ServiceConfig は indicators サービスの環境変数設定です。
type ServiceConfig struct {
	Usecase      usecase.Config
	CacheTimeout time.Duration
}

// LoadServiceConfig は CACHE_TTL, CACHE_TIMEOUT, LOAD_TIMEOUT, QUOTA_CHARGE_CACHE_HITS を読み込みます。
// 未設定の値はデフォルトになります。
func LoadServiceConfig() (ServiceConfig, error) {
	cfg := ServiceConfig{
		Usecase: usecase.Config{
			CacheTTL:        usecase.DefaultCacheTTL,
			LoadTimeout:     usecase.DefaultLoadTimeout,
			ChargeCacheHits: true,
		},
		CacheTimeout: cache.DefaultTimeout,
	}

	var err error
	if cfg.Usecase.CacheTTL, err = durationEnv("CACHE_TTL", cfg.Usecase.CacheTTL); err != nil {
		return ServiceConfig{}, err
	}
	if cfg.CacheTimeout, err = durationEnv("CACHE_TIMEOUT", cfg.CacheTimeout); err != nil {
		return ServiceConfig{}, err
	}
	if cfg.Usecase.LoadTimeout, err = durationEnv("LOAD_TIMEOUT", cfg.Usecase.LoadTimeout); err != nil {
		return ServiceConfig{}, err
	}
	if v := os.Getenv("QUOTA_CHARGE_CACHE_HITS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ServiceConfig{}, fmt.Errorf("invalid QUOTA_CHARGE_CACHE_HITS %q: %w", v, err)
		}
		cfg.Usecase.ChargeCacheHits = b
	}
	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}

// NewResultCache wraps the Redis client. A nil client yields a cache that always misses.
func NewResultCache(rdb *redis.Client, timeout time.Duration, m *metrics.Metrics) *cache.RedisResultCache {
	return cache.NewRedisResultCache(rdb, timeout, m)
}
