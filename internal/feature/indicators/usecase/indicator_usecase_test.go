package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicator_backend/internal/feature/access/adapters"
	"indicator_backend/internal/feature/access/domain/policy"
	"indicator_backend/internal/feature/indicators/domain/entity"
	"indicator_backend/internal/feature/indicators/usecase"
	"indicator_backend/internal/shared/market"
)

// ErrDB はモックと期待値の間で共有されるセンチネルエラーです。
var ErrDB = errors.New("database error")

var fixedNow = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

// mockPriceSource はPriceSourceインターフェースのモック実装です。
type mockPriceSource struct {
	mu        sync.Mutex
	LoadFunc  func(ctx context.Context, symbol string, start, end time.Time) (market.Series, error)
	LoadCalls int
}

func (m *mockPriceSource) Load(ctx context.Context, symbol string, start, end time.Time) (market.Series, error) {
	m.mu.Lock()
	m.LoadCalls++
	m.mu.Unlock()
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, symbol, start, end)
	}
	return nil, errors.New("LoadFunc is not implemented")
}

// memoryCache はResultCacheのインメモリ実装です。
type memoryCache struct {
	mu       sync.Mutex
	entries  map[string][]byte
	GetCalls int
	PutCalls int
	LastTTL  time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalls++
	b, ok := c.entries[key]
	return b, ok
}

func (c *memoryCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PutCalls++
	c.LastTTL = ttl
	c.entries[key] = value
}

// memoryUsage はUsageCounterのインメモリ実装です。
type memoryUsage struct {
	mu         sync.Mutex
	counts     map[string]int64
	CurrentErr error
	IncrErr    error
	Saturated  bool // trueなら加算時に常に上限到達を返す
	Days       []string
}

func newMemoryUsage() *memoryUsage {
	return &memoryUsage{counts: map[string]int64{}}
}

func (u *memoryUsage) key(userID uint, day string) string {
	return fmt.Sprintf("%d:%s", userID, day)
}

func (u *memoryUsage) Current(ctx context.Context, userID uint, day string) (int64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.CurrentErr != nil {
		return 0, u.CurrentErr
	}
	return u.counts[u.key(userID, day)], nil
}

func (u *memoryUsage) IncrementWithCeiling(ctx context.Context, userID uint, day string, ceiling int64) (int64, bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Days = append(u.Days, day)
	if u.IncrErr != nil {
		return 0, false, u.IncrErr
	}
	k := u.key(userID, day)
	if u.Saturated || (ceiling > 0 && u.counts[k] >= ceiling) {
		return u.counts[k], false, nil
	}
	u.counts[k]++
	return u.counts[k], true, nil
}

func (u *memoryUsage) count(userID uint) int64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.counts[u.key(userID, "2024-03-10")]
}

func date(s string) time.Time {
	d, err := market.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// risingSeries returns n bars starting at start with closes 1..n.
func risingSeries(start time.Time, n int) market.Series {
	out := make(market.Series, n)
	for i := range out {
		c := float64(i + 1)
		out[i] = market.Bar{Symbol: "AAPL", Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 0.5, Close: c, Volume: 100}
	}
	return out
}

type fixture struct {
	prices *mockPriceSource
	cache  *memoryCache
	usage  *memoryUsage
	uc     *usecase.IndicatorUsecase
}

func newFixture(t *testing.T, cfg usecase.Config) *fixture {
	t.Helper()

	table, err := adapters.DefaultTable()
	require.NoError(t, err)

	f := &fixture{
		prices: &mockPriceSource{
			LoadFunc: func(ctx context.Context, symbol string, start, end time.Time) (market.Series, error) {
				return risingSeries(start, 5), nil
			},
		},
		cache: newMemoryCache(),
		usage: newMemoryUsage(),
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return fixedNow }
	}
	f.uc = usecase.NewIndicatorUsecase(f.prices, f.cache, f.usage, policy.New(table), cfg, nil)
	return f
}

func smaRequest(symbol string) entity.Request {
	p := entity.DefaultParams()
	p.Window = 3
	return entity.Request{Symbol: symbol, Start: date("2023-01-02"), End: date("2023-01-06"), Indicator: entity.SMA, Params: p}
}

var (
	freeCaller    = usecase.Caller{UserID: 1, Tier: "free"}
	proCaller     = usecase.Caller{UserID: 2, Tier: "pro"}
	premiumCaller = usecase.Caller{UserID: 3, Tier: "premium"}
)

func TestIndicatorUsecase_Compute_Success(t *testing.T) {
	t.Parallel()

	f := newFixture(t, usecase.Config{ChargeCacheHits: true})

	b, err := f.uc.Compute(context.Background(), freeCaller, smaRequest("AAPL"))

	require.NoError(t, err)
	assert.JSONEq(t, `{
		"dates":["2023-01-02","2023-01-03","2023-01-04","2023-01-05","2023-01-06"],
		"values":[null,null,2,3,4]
	}`, string(b))
	assert.Equal(t, 1, f.cache.PutCalls)
	assert.Equal(t, usecase.DefaultCacheTTL, f.cache.LastTTL)
	assert.Equal(t, int64(1), f.usage.count(freeCaller.UserID))
	assert.Equal(t, []string{"2024-03-10"}, f.usage.Days)
}

func TestIndicatorUsecase_Compute_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		caller     usecase.Caller
		req        func() entity.Request
		wantErr    error
		wantReason string
		wantField  string
	}{
		{
			name:   "free tier cannot use rsi",
			caller: freeCaller,
			req: func() entity.Request {
				r := smaRequest("AAPL")
				r.Indicator = entity.RSI
				r.Start, r.End = date("2022-07-01"), date("2023-03-31")
				return r
			},
			wantErr:    usecase.ErrPolicyViolation,
			wantReason: "Free tier: Only SMA and EMA allowed.",
		},
		{
			name:   "free tier span too long",
			caller: freeCaller,
			req: func() entity.Request {
				r := smaRequest("AAPL")
				r.Start, r.End = date("2022-07-01"), date("2023-03-31")
				return r
			},
			wantErr:    usecase.ErrPolicyViolation,
			wantReason: "Free tier: Max 3 months of data allowed.",
		},
		{
			name:   "pro tier cannot use vwap",
			caller: proCaller,
			req: func() entity.Request {
				r := smaRequest("AAPL")
				r.Indicator = entity.VWAP
				return r
			},
			wantErr:    usecase.ErrPolicyViolation,
			wantReason: "Pro tier: Only SMA, EMA, RSI, MACD allowed.",
		},
		{
			name:       "unknown tier",
			caller:     usecase.Caller{UserID: 9, Tier: "gold"},
			req:        func() entity.Request { return smaRequest("AAPL") },
			wantErr:    usecase.ErrPolicyViolation,
			wantReason: "Unknown subscription tier.",
		},
		{
			name:   "non-positive window",
			caller: premiumCaller,
			req: func() entity.Request {
				r := smaRequest("AAPL")
				r.Params.Window = 0
				return r
			},
			wantErr:   usecase.ErrInvalidRequest,
			wantField: "window",
		},
		{
			name:   "end before start",
			caller: premiumCaller,
			req: func() entity.Request {
				r := smaRequest("AAPL")
				r.Start, r.End = r.End, r.Start
				return r
			},
			wantErr:   usecase.ErrInvalidRequest,
			wantField: "end_date",
		},
		{
			name:   "window above maximum",
			caller: premiumCaller,
			req: func() entity.Request {
				r := smaRequest("AAPL")
				r.Params.Window = entity.MaxParam + 1
				return r
			},
			wantErr:   usecase.ErrInvalidRequest,
			wantField: "window",
		},
		{
			name:   "free tier policy violation wins over unavailable usage store",
			caller: freeCaller,
			req: func() entity.Request {
				r := smaRequest("AAPL")
				r.Indicator = entity.RSI
				return r
			},
			wantErr:    usecase.ErrPolicyViolation,
			wantReason: "Free tier: Only SMA and EMA allowed.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, usecase.Config{ChargeCacheHits: true})
			// 指標・期間・入力の判定は利用回数ストアに依存しない
			f.usage.CurrentErr = ErrDB

			b, err := f.uc.Compute(context.Background(), tt.caller, tt.req())

			assert.Nil(t, b)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, usecase.Reason(err))
			}
			if tt.wantField != "" {
				var re *usecase.RejectionError
				require.ErrorAs(t, err, &re)
				assert.Equal(t, tt.wantField, re.Field)
			}

			// 拒否されたリクエストはキャッシュにも利用回数にも触れない
			assert.Zero(t, f.cache.GetCalls, "cache must not be read")
			assert.Zero(t, f.cache.PutCalls, "cache must not be written")
			assert.Zero(t, f.prices.LoadCalls, "prices must not be loaded")
			assert.Empty(t, f.usage.Days, "usage must not be incremented")
		})
	}
}

func TestIndicatorUsecase_Compute_CacheHitReturnsIdenticalBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		charge    bool
		wantUsage int64
	}{
		{name: "hits are charged", charge: true, wantUsage: 2},
		{name: "hits are free", charge: false, wantUsage: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, usecase.Config{ChargeCacheHits: tt.charge})
			ctx := context.Background()

			first, err := f.uc.Compute(ctx, freeCaller, smaRequest("AAPL"))
			require.NoError(t, err)
			second, err := f.uc.Compute(ctx, freeCaller, smaRequest("AAPL"))
			require.NoError(t, err)

			assert.Equal(t, first, second)
			assert.Equal(t, 1, f.prices.LoadCalls, "second request must be served from cache")
			assert.Equal(t, 1, f.cache.PutCalls)
			assert.Equal(t, tt.wantUsage, f.usage.count(freeCaller.UserID))
		})
	}
}

func TestIndicatorUsecase_Compute_CachedBytesAreReturnedVerbatim(t *testing.T) {
	t.Parallel()

	f := newFixture(t, usecase.Config{})
	req := smaRequest("AAPL")
	stored := []byte(`{"dates":["2023-01-02"],"values":[1.5]}`)
	f.cache.entries[usecase.CacheKey(req)] = stored

	b, err := f.uc.Compute(context.Background(), premiumCaller, req)

	require.NoError(t, err)
	assert.Equal(t, stored, b)
	assert.Zero(t, f.prices.LoadCalls)
}

func TestIndicatorUsecase_Compute_QuotaAfterDailyLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t, usecase.Config{ChargeCacheHits: true})
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		_, err := f.uc.Compute(ctx, freeCaller, smaRequest(fmt.Sprintf("SYM%d", i%3)))
		require.NoError(t, err, "request %d", i+1)
	}

	// 51件目は指標に関係なく上限超過
	ema := smaRequest("AAPL")
	ema.Indicator = entity.EMA
	_, err := f.uc.Compute(ctx, freeCaller, ema)

	require.ErrorIs(t, err, usecase.ErrQuotaExceeded)
	assert.Equal(t, "Free tier: Max 50 requests per day reached.", usecase.Reason(err))
	assert.Equal(t, int64(50), f.usage.count(freeCaller.UserID))

	// 他のユーザーには影響しない
	_, err = f.uc.Compute(ctx, usecase.Caller{UserID: 99, Tier: "free"}, smaRequest("AAPL"))
	assert.NoError(t, err)
}

func TestIndicatorUsecase_Compute_ConcurrentCallerHitsCeiling(t *testing.T) {
	t.Parallel()

	f := newFixture(t, usecase.Config{})
	f.usage.Saturated = true

	_, err := f.uc.Compute(context.Background(), freeCaller, smaRequest("AAPL"))

	require.ErrorIs(t, err, usecase.ErrQuotaExceeded)
	assert.Equal(t, "Free tier: Max 50 requests per day reached.", usecase.Reason(err))
	assert.Equal(t, 1, f.cache.PutCalls, "computed payload stays cached")
}

func TestIndicatorUsecase_Compute_MACDAcceptsFastAboveSlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t, usecase.Config{})
	req := smaRequest("AAPL")
	req.Indicator = entity.MACD
	req.Params.Fast, req.Params.Slow = 26, 12

	b, err := f.uc.Compute(context.Background(), premiumCaller, req)

	require.NoError(t, err)
	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &got))
	var macd []*float64
	require.NoError(t, json.Unmarshal(got["macd"], &macd))
	require.Len(t, macd, 5)
	// 上昇系列では長いスパンのEMAほど遅れるので、fast に長いスパンを渡すと負になる
	require.NotNil(t, macd[4])
	assert.Less(t, *macd[4], 0.0)
}

func TestIndicatorUsecase_Compute_SymbolsWithSeparatorsHaveOwnEntries(t *testing.T) {
	t.Parallel()

	f := newFixture(t, usecase.Config{})
	f.prices.LoadFunc = func(ctx context.Context, symbol string, start, end time.Time) (market.Series, error) {
		s := risingSeries(start, 5)
		if symbol == "BRK B" {
			for i := range s {
				s[i].Close *= 100
			}
		}
		return s, nil
	}
	ctx := context.Background()

	underscore, err := f.uc.Compute(ctx, premiumCaller, smaRequest("BRK_B"))
	require.NoError(t, err)
	spaced, err := f.uc.Compute(ctx, premiumCaller, smaRequest("BRK B"))
	require.NoError(t, err)

	assert.Equal(t, 2, f.prices.LoadCalls, "each symbol must be loaded")
	assert.Equal(t, 2, f.cache.PutCalls)
	assert.JSONEq(t, `{
		"dates":["2023-01-02","2023-01-03","2023-01-04","2023-01-05","2023-01-06"],
		"values":[null,null,2,3,4]
	}`, string(underscore))
	assert.JSONEq(t, `{
		"dates":["2023-01-02","2023-01-03","2023-01-04","2023-01-05","2023-01-06"],
		"values":[null,null,200,300,400]
	}`, string(spaced))
}

func TestIndicatorUsecase_Compute_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, usecase.Config{})
	f.prices.LoadFunc = func(ctx context.Context, symbol string, start, end time.Time) (market.Series, error) {
		return market.Series{}, nil
	}

	_, err := f.uc.Compute(context.Background(), freeCaller, smaRequest("NOPE"))

	require.ErrorIs(t, err, usecase.ErrNotFound)
	assert.Contains(t, usecase.Reason(err), "NOPE")
	assert.Zero(t, f.cache.PutCalls)
	assert.Empty(t, f.usage.Days, "not found is not charged")
}

func TestIndicatorUsecase_Compute_StoreErrors(t *testing.T) {
	t.Parallel()

	t.Run("price store failure", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, usecase.Config{})
		f.prices.LoadFunc = func(ctx context.Context, symbol string, start, end time.Time) (market.Series, error) {
			return nil, fmt.Errorf("load prices AAPL: %w", ErrDB)
		}

		_, err := f.uc.Compute(context.Background(), freeCaller, smaRequest("AAPL"))

		require.ErrorIs(t, err, usecase.ErrBackingStoreUnavailable)
		assert.NotErrorIs(t, err, ErrDB, "raw store errors are not exposed")
		assert.NotContains(t, err.Error(), "database error")
		assert.Empty(t, f.usage.Days)
	})

	t.Run("price load times out", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, usecase.Config{LoadTimeout: 10 * time.Millisecond})
		f.prices.LoadFunc = func(ctx context.Context, symbol string, start, end time.Time) (market.Series, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}

		_, err := f.uc.Compute(context.Background(), freeCaller, smaRequest("AAPL"))

		require.ErrorIs(t, err, usecase.ErrBackingStoreUnavailable)
	})

	t.Run("usage read failure for limited tier", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, usecase.Config{})
		f.usage.CurrentErr = ErrDB

		_, err := f.uc.Compute(context.Background(), freeCaller, smaRequest("AAPL"))

		require.ErrorIs(t, err, usecase.ErrBackingStoreUnavailable)
		assert.Zero(t, f.prices.LoadCalls)
	})

	t.Run("unlimited tier never reads usage", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, usecase.Config{})
		f.usage.CurrentErr = ErrDB

		_, err := f.uc.Compute(context.Background(), premiumCaller, smaRequest("AAPL"))

		assert.NoError(t, err)
	})

	t.Run("usage increment failure for limited tier", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, usecase.Config{})
		f.usage.IncrErr = ErrDB

		_, err := f.uc.Compute(context.Background(), freeCaller, smaRequest("AAPL"))

		require.ErrorIs(t, err, usecase.ErrBackingStoreUnavailable)
	})

	t.Run("usage increment failure for unlimited tier is ignored", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, usecase.Config{})
		f.usage.IncrErr = ErrDB

		b, err := f.uc.Compute(context.Background(), premiumCaller, smaRequest("AAPL"))

		require.NoError(t, err)
		assert.NotEmpty(t, b)
	})
}

func TestIndicatorUsecase_Compute_AllIndicators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ind        entity.Indicator
		wantSeries []string
	}{
		{entity.SMA, []string{"values"}},
		{entity.EMA, []string{"values"}},
		{entity.RSI, []string{"values"}},
		{entity.MACD, []string{"macd", "signal"}},
		{entity.Bollinger, []string{"upper_band", "middle_band", "lower_band"}},
		{entity.VWAP, []string{"values"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.ind), func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, usecase.Config{})
			req := smaRequest("AAPL")
			req.Indicator = tt.ind

			b, err := f.uc.Compute(context.Background(), premiumCaller, req)
			require.NoError(t, err)

			var body map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(b, &body))
			assert.Len(t, body, len(tt.wantSeries)+1)

			var dates []string
			require.NoError(t, json.Unmarshal(body["dates"], &dates))
			assert.Len(t, dates, 5)
			for _, name := range tt.wantSeries {
				var values []*float64
				require.NoError(t, json.Unmarshal(body[name], &values), name)
				assert.Len(t, values, 5, name)
			}
		})
	}
}

func TestIndicatorUsecase_Compute_UsageDayFollowsClock(t *testing.T) {
	t.Parallel()

	jst := time.FixedZone("JST", 9*60*60)
	f := newFixture(t, usecase.Config{
		Now: func() time.Time { return time.Date(2024, 3, 11, 7, 0, 0, 0, jst) },
	})

	_, err := f.uc.Compute(context.Background(), freeCaller, smaRequest("AAPL"))

	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-10"}, f.usage.Days, "usage days are UTC calendar days")
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ok", usecase.ErrorKind(nil))
	assert.Equal(t, "invalid_request", usecase.ErrorKind(&usecase.RejectionError{Kind: usecase.ErrInvalidRequest}))
	assert.Equal(t, "policy_violation", usecase.ErrorKind(&usecase.RejectionError{Kind: usecase.ErrPolicyViolation}))
	assert.Equal(t, "quota_exceeded", usecase.ErrorKind(&usecase.RejectionError{Kind: usecase.ErrQuotaExceeded}))
	assert.Equal(t, "not_found", usecase.ErrorKind(&usecase.RejectionError{Kind: usecase.ErrNotFound}))
	assert.Equal(t, "backing_store_unavailable", usecase.ErrorKind(&usecase.RejectionError{Kind: usecase.ErrBackingStoreUnavailable}))
	assert.Equal(t, "internal", usecase.ErrorKind(ErrDB))
	assert.Equal(t, "", usecase.Reason(ErrDB))
}
