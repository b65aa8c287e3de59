package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"indicator_backend/internal/app/di"
	priceadapters "indicator_backend/internal/feature/prices/adapters"
	priceusecase "indicator_backend/internal/feature/prices/usecase"
	infradb "indicator_backend/internal/platform/db"
	"indicator_backend/internal/shared/market"
	"indicator_backend/internal/shared/ratelimiter"
)

// ingestConfig は取り込みジョブの設定です。
type ingestConfig struct {
	Symbols       []string
	Start         time.Time
	RatePerMinute int
}

// defaultRatePerMinute はTwelve Data無料プランの上限です。
const defaultRatePerMinute = 8

func loadIngestConfig(now time.Time) (ingestConfig, error) {
	cfg := ingestConfig{
		Start:         now.UTC().AddDate(-1, 0, 0).Truncate(24 * time.Hour),
		RatePerMinute: defaultRatePerMinute,
	}
	for _, s := range strings.Split(os.Getenv("INGEST_SYMBOLS"), ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			cfg.Symbols = append(cfg.Symbols, s)
		}
	}
	if v := os.Getenv("INGEST_START_DATE"); v != "" {
		t, err := market.ParseDate(v)
		if err != nil {
			return ingestConfig{}, fmt.Errorf("invalid INGEST_START_DATE %q: %w", v, err)
		}
		cfg.Start = t
	}
	if v := os.Getenv("INGEST_RATE_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return ingestConfig{}, fmt.Errorf("invalid INGEST_RATE_PER_MINUTE %q", v)
		}
		cfg.RatePerMinute = n
	}
	return cfg, nil
}

func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	now := time.Now()
	cfg, err := loadIngestConfig(now)
	if err != nil {
		slog.Error("invalid ingest config", "error", err)
		os.Exit(1)
	}

	marketRepo, err := di.NewMarket()
	if err != nil {
		slog.Error("market client unavailable", "error", err)
		os.Exit(1)
	}

	db, err := infradb.OpenDB(infradb.LoadConfigFromEnv())
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	priceRepo := priceadapters.NewPriceRepository(db)
	limiter := ratelimiter.NewRateLimiter(cfg.RatePerMinute, time.Minute)
	uc := priceusecase.NewIngestUsecase(marketRepo, priceRepo, limiter)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	symbols := cfg.Symbols
	if len(symbols) == 0 {
		// 未指定なら保存済みの銘柄を更新する
		cs, err := priceRepo.ListSymbols(ctx)
		if err != nil {
			slog.Error("failed to load symbols", "error", err)
			os.Exit(1)
		}
		for _, c := range cs {
			symbols = append(symbols, c.Symbol)
		}
	}
	if len(symbols) == 0 {
		slog.Warn("no symbols to ingest; set INGEST_SYMBOLS")
		return
	}

	end := now.UTC().Truncate(24 * time.Hour)
	if err := uc.IngestAll(ctx, symbols, cfg.Start, end); err != nil {
		slog.Error("ingest aborted", "error", err)
		os.Exit(1)
	}
	slog.Info("ingest ok", "symbols", len(symbols))
}
