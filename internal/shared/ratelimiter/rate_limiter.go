package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	WaitIfNeeded(ctx context.Context) error
}

// RateLimiterは、一定期間あたりの呼び出し回数を制限します。
// トークンバケット(golang.org/x/time/rate)で実装しており、並行利用できます。
type RateLimiter struct {
	limiter *rate.Limiter
	limit   int
}

// NewRateLimiterは interval あたり limit 回まで許可するRateLimiterを生成します。
// limit 回までは待たずに実行でき、それ以降は均等な間隔で許可されます。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	every := rate.Every(interval / time.Duration(limit))
	return &RateLimiter{
		limiter: rate.NewLimiter(every, limit),
		limit:   limit,
	}
}

// WaitIfNeededは上限に達していれば次の枠が空くまで待機します。
// ctx がキャンセルされた場合はエラーを返します。
func (rl *RateLimiter) WaitIfNeeded(ctx context.Context) error {
	r := rl.limiter.Reserve()
	if !r.OK() {
		return rl.limiter.Wait(ctx)
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}

	slog.Info("rate limit reached, waiting", "limit", rl.limit, "delay", delay)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}
