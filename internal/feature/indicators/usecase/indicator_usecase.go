// Package usecase implements the indicator request flow: validation, tier
// policy, result cache, price loading, computation and usage accounting.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	accessentity "indicator_backend/internal/feature/access/domain/entity"
	"indicator_backend/internal/feature/indicators/domain/engine"
	"indicator_backend/internal/feature/indicators/domain/entity"
	usageentity "indicator_backend/internal/feature/usage/domain/entity"
	"indicator_backend/internal/shared/market"
)

const (
	// DefaultCacheTTL は計算結果をキャッシュする期間です。
	DefaultCacheTTL = time.Hour
	// DefaultLoadTimeout は価格データ読み込みの上限時間です。
	DefaultLoadTimeout = 5 * time.Second
)

// PriceSource は日足データの読み取りを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type PriceSource interface {
	Load(ctx context.Context, symbol string, start, end time.Time) (market.Series, error)
}

// ResultCache は計算済みペイロードのキャッシュです。
// 実装は失敗を呼び出し元に返さず、読み取りはミス、書き込みはスキップとして扱います。
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// UsageCounter はユーザーごとの日次利用回数です。ceiling が0以下なら上限なしです。
type UsageCounter interface {
	Current(ctx context.Context, userID uint, day string) (int64, error)
	IncrementWithCeiling(ctx context.Context, userID uint, day string, ceiling int64) (int64, bool, error)
}

// Policy はティアごとの利用可否を判定します。
type Policy interface {
	Evaluate(tier string, ind entity.Indicator, start, end time.Time, usage int64) accessentity.Decision
	DailyLimit(tier string) (int64, bool)
}

// Recorder receives request and engine measurements.
type Recorder interface {
	ObserveRequest(indicator, outcome string, d time.Duration)
	ObserveCompute(indicator string, d time.Duration)
	UsageIncrement(result string)
}

// Config は IndicatorUsecase の動作設定です。
type Config struct {
	CacheTTL        time.Duration
	LoadTimeout     time.Duration
	ChargeCacheHits bool             // キャッシュヒットも利用回数に数えるか
	Now             func() time.Time // 利用日の決定に使う時計。nil なら time.Now
}

// Caller は認証済みの呼び出し元です。
type Caller struct {
	UserID uint
	Tier   string
}

// IndicatorUsecase はインジケーター計算リクエストを処理します。
type IndicatorUsecase struct {
	prices PriceSource
	cache  ResultCache
	usage  UsageCounter
	policy Policy
	rec    Recorder
	cfg    Config
}

// NewIndicatorUsecase は新しい IndicatorUsecase を生成します。rec は nil でも構いません。
func NewIndicatorUsecase(prices PriceSource, cache ResultCache, usage UsageCounter, policy Policy, cfg Config, rec Recorder) *IndicatorUsecase {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = DefaultLoadTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &IndicatorUsecase{prices: prices, cache: cache, usage: usage, policy: policy, rec: rec, cfg: cfg}
}

// Compute は req を処理してシリアライズ済みのペイロードを返します。
//
// 処理順: 入力検証 → ティア判定 → キャッシュ参照 → (ミス時) 価格読み込み → 計算 → キャッシュ保存 → 利用回数加算。
// 判定で拒否された場合、キャッシュにも利用回数にも触れません。
// キャッシュヒット時は保存されたバイト列をそのまま返します。
func (u *IndicatorUsecase) Compute(ctx context.Context, caller Caller, req entity.Request) (payload []byte, err error) {
	began := time.Now()
	defer func() {
		u.rec.ObserveRequest(string(req.Indicator), ErrorKind(err), time.Since(began))
	}()

	if err := req.Validate(); err != nil {
		re := &RejectionError{Kind: ErrInvalidRequest, Reason: err.Error()}
		var fe *entity.FieldError
		if errors.As(err, &fe) {
			re.Field = fe.Field
		}
		return nil, re
	}

	day := usageentity.DayOf(u.cfg.Now())
	limit, limited := u.policy.DailyLimit(caller.Tier)

	// 指標と期間の判定はカウンターに依存しないので先に行う
	if err := u.admit(caller, req, 0); err != nil {
		return nil, err
	}
	if limited {
		used, err := u.usage.Current(ctx, caller.UserID, day)
		if err != nil {
			slog.Error("failed to read usage", "user_id", caller.UserID, "day", day, "error", err)
			return nil, reject(ErrBackingStoreUnavailable, "Usage store is unavailable.")
		}
		if err := u.admit(caller, req, used); err != nil {
			return nil, err
		}
	}

	key := CacheKey(req)
	if b, ok := u.cache.Get(ctx, key); ok {
		if u.cfg.ChargeCacheHits {
			if err := u.account(ctx, caller, req, day, limit, limited); err != nil {
				return nil, err
			}
		}
		return b, nil
	}

	loadCtx, cancel := context.WithTimeout(ctx, u.cfg.LoadTimeout)
	series, err := u.prices.Load(loadCtx, req.Symbol, req.Start, req.End)
	cancel()
	if err != nil {
		slog.Error("failed to load prices", "symbol", req.Symbol, "error", err)
		return nil, reject(ErrBackingStoreUnavailable, "Price store is unavailable.")
	}
	if len(series) == 0 {
		return nil, reject(ErrNotFound, fmt.Sprintf("No price data for %s between %s and %s.",
			req.Symbol, market.FormatDate(req.Start), market.FormatDate(req.End)))
	}

	computeStart := time.Now()
	res, err := engine.Compute(req.Indicator, series, req.Params)
	u.rec.ObserveCompute(string(req.Indicator), time.Since(computeStart))
	if err != nil {
		return nil, fmt.Errorf("compute %s: %w", req.Indicator, err)
	}

	payload, err = EncodePayload(res)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", req.Indicator, err)
	}

	u.cache.Put(ctx, key, payload, u.cfg.CacheTTL)

	if err := u.account(ctx, caller, req, day, limit, limited); err != nil {
		return nil, err
	}
	return payload, nil
}

// admit はティア判定の拒否理由をエラー種別に変換します。
func (u *IndicatorUsecase) admit(caller Caller, req entity.Request, used int64) error {
	d := u.policy.Evaluate(caller.Tier, req.Indicator, req.Start, req.End, used)
	if d.Allowed {
		return nil
	}
	if d.Denial == accessentity.DenialQuota {
		return reject(ErrQuotaExceeded, d.Reason)
	}
	return reject(ErrPolicyViolation, d.Reason)
}

// account は利用回数を上限付きで1加算します。
// 同時リクエストによって既に上限に達していた場合は ErrQuotaExceeded を返します。
// 上限のないティアではカウンターの失敗を記録するだけでリクエストは成功させます。
func (u *IndicatorUsecase) account(ctx context.Context, caller Caller, req entity.Request, day string, limit int64, limited bool) error {
	var ceiling int64
	if limited {
		ceiling = limit
	}

	_, ok, err := u.usage.IncrementWithCeiling(ctx, caller.UserID, day, ceiling)
	if err != nil {
		u.rec.UsageIncrement("error")
		if limited {
			slog.Error("failed to increment usage", "user_id", caller.UserID, "day", day, "error", err)
			return reject(ErrBackingStoreUnavailable, "Usage store is unavailable.")
		}
		slog.Warn("failed to increment usage for unlimited tier", "user_id", caller.UserID, "tier", caller.Tier, "error", err)
		return nil
	}
	if !ok {
		u.rec.UsageIncrement("ceiling")
		d := u.policy.Evaluate(caller.Tier, req.Indicator, req.Start, req.End, limit)
		return reject(ErrQuotaExceeded, d.Reason)
	}
	u.rec.UsageIncrement("admitted")
	return nil
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, string, time.Duration) {}
func (nopRecorder) ObserveCompute(string, time.Duration) {}
func (nopRecorder) UsageIncrement(string) {}
