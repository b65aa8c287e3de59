package usecase

import (
	"context"
	"log/slog"
	"time"

	"indicator_backend/internal/shared/market"
	"indicator_backend/internal/shared/ratelimiter"
)

// MarketRepository は株価データを取得するリポジトリのインターフェイスです。
// 外部 API の実装を抽象化します。
type MarketRepository interface {
	GetDailySeries(ctx context.Context, symbol string, start, end time.Time) (market.Series, error)
}

// IngestUsecase は外部APIから日足を取得し、データベースに永続化するユースケースです。
type IngestUsecase struct {
	market      MarketRepository
	prices      PriceRepository
	rateLimiter ratelimiter.RateLimiterInterface
}

// NewIngestUsecase は新しい IngestUsecase を作成します。
func NewIngestUsecase(market MarketRepository, prices PriceRepository, rateLimiter ratelimiter.RateLimiterInterface) *IngestUsecase {
	return &IngestUsecase{market: market, prices: prices, rateLimiter: rateLimiter}
}

// ingestOne は指定銘柄の [start, end] の日足を取得し、一括で挿入（または更新）します。
func (iu *IngestUsecase) ingestOne(ctx context.Context, symbol string, start, end time.Time) (int, error) {
	bars, err := iu.market.GetDailySeries(ctx, symbol, start, end)
	if err != nil {
		return 0, err
	}
	for i := range bars {
		bars[i].Symbol = symbol
	}
	if err := iu.prices.UpsertBatch(ctx, bars); err != nil {
		return 0, err
	}
	return len(bars), nil
}

// IngestAll は全銘柄の日足を start から end まで取得して保存します。
// 既に保存済みの銘柄は最新保存日から取り直します（最終日は更新される可能性があるため）。
// 1銘柄の失敗はログに残して次へ進みます。ctx のキャンセルだけが処理を中断します。
func (iu *IngestUsecase) IngestAll(ctx context.Context, symbols []string, start, end time.Time) error {
	last := map[string]time.Time{}
	if cs, err := iu.prices.ListSymbols(ctx); err != nil {
		slog.Warn("failed to read stored coverage, ingesting full range", "error", err)
	} else {
		last = coverageBySymbol(cs)
	}

	for _, s := range symbols {
		from := start
		if l, ok := last[s]; ok && l.After(from) {
			from = l
		}
		if from.After(end) {
			continue
		}

		if err := iu.rateLimiter.WaitIfNeeded(ctx); err != nil {
			return err
		}
		n, err := iu.ingestOne(ctx, s, from, end)
		if err != nil {
			slog.Error("failed to ingest data", "symbol", s, "start", market.FormatDate(from), "error", err)
			continue
		}
		slog.Info("ingested prices", "symbol", s, "start", market.FormatDate(from), "end", market.FormatDate(end), "bars", n)
	}
	return nil
}
