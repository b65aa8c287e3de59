package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"indicator_backend/internal/feature/indicators/usecase"
	usageadapters "indicator_backend/internal/feature/usage/adapters"
)

// NewUsageCounter creates a UsageCounter implementation.
// If Redis is available, it returns the Lua-script backed counter.
// Otherwise, it falls back to the daily_usage table.
func NewUsageCounter(rdb *redis.Client, db *gorm.DB) usecase.UsageCounter {
	if rdb != nil {
		return usageadapters.NewUsageRedis(rdb, "usage")
	}
	return usageadapters.NewUsageGorm(db)
}
