// Package adapters はusageフィーチャーの日次カウンター実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"indicator_backend/internal/feature/usage/domain/entity"
)

// DefaultRedisPrefix は利用回数キーの既定プレフィックスです。
const DefaultRedisPrefix = "usage"

// incrementScript は上限チェックと加算を1回の操作で行います。
// KEYS[1]=カウンターキー, ARGV[1]=上限(0以下は無制限), ARGV[2]=失効時刻(unix秒)
// 戻り値は {加算後(または現在)の値, 加算したら1}。
var incrementScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local ceiling = tonumber(ARGV[1])
if ceiling > 0 and current >= ceiling then
  return {current, 0}
end
local n = redis.call('INCR', KEYS[1])
redis.call('EXPIREAT', KEYS[1], ARGV[2])
return {n, 1}
`)

// UsageRedis はRedisに日次の利用回数を保持します。
// キーは日付ごとに分かれ、翌日0時(UTC)を過ぎると失効します。
type UsageRedis struct {
	client *redis.Client
	prefix string
}

// NewUsageRedis は新しいUsageRedisを生成します。
func NewUsageRedis(client *redis.Client, prefix string) *UsageRedis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &UsageRedis{client: client, prefix: prefix}
}

func (r *UsageRedis) key(userID uint, day string) string {
	return fmt.Sprintf("%s:%d:%s", r.prefix, userID, day)
}

// Current は当日の利用回数を返します。キーが無ければ0です。
func (r *UsageRedis) Current(ctx context.Context, userID uint, day string) (int64, error) {
	v, err := r.client.Get(ctx, r.key(userID, day)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("usage get: %w", err)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("usage parse %q: %w", v, err)
	}
	return n, nil
}

// IncrementWithCeiling は利用回数が ceiling 未満のときだけ1加算します。
// 戻り値は (加算後または現在の値, 加算したか, エラー)。
func (r *UsageRedis) IncrementWithCeiling(ctx context.Context, userID uint, day string, ceiling int64) (int64, bool, error) {
	expireAt, err := entity.EndOfDay(day)
	if err != nil {
		return 0, false, fmt.Errorf("usage day %q: %w", day, err)
	}

	res, err := incrementScript.Run(ctx, r.client,
		[]string{r.key(userID, day)},
		ceiling, expireAt.Add(time.Hour).Unix(),
	).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("usage increment: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("usage increment: unexpected reply %v", res)
	}
	return res[0], res[1] == 1, nil
}
