package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redisv9 "github.com/redis/go-redis/v9"

	"indicator_backend/internal/app/di"
	"indicator_backend/internal/app/router"
	accessadapters "indicator_backend/internal/feature/access/adapters"
	"indicator_backend/internal/feature/access/domain/policy"
	authadapters "indicator_backend/internal/feature/auth/adapters"
	authhandler "indicator_backend/internal/feature/auth/transport/handler"
	authusecase "indicator_backend/internal/feature/auth/usecase"
	indicatorhandler "indicator_backend/internal/feature/indicators/transport/handler"
	indicatorusecase "indicator_backend/internal/feature/indicators/usecase"
	priceadapters "indicator_backend/internal/feature/prices/adapters"
	pricehandler "indicator_backend/internal/feature/prices/transport/handler"
	priceusecase "indicator_backend/internal/feature/prices/usecase"
	infradb "indicator_backend/internal/platform/db"
	platformhandler "indicator_backend/internal/platform/http/handler"
	jwtmw "indicator_backend/internal/platform/jwt"
	"indicator_backend/internal/platform/metrics"
	infraredis "indicator_backend/internal/platform/redis"
)

func main() {
	// .env はローカル開発用。存在しなくてもよい
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jwtCfg, err := jwtmw.LoadConfig()
	if err != nil {
		return err
	}
	svcCfg, err := di.LoadServiceConfig()
	if err != nil {
		return err
	}
	table, err := accessadapters.LoadTable()
	if err != nil {
		return err
	}

	// db
	db, err := infradb.OpenDB(infradb.LoadConfigFromEnv())
	if err != nil {
		return err
	}

	// Redis
	var rdb *redisv9.Client
	if redisCfg, enabled := infraredis.LoadConfig(); enabled {
		if tmp, err := infraredis.NewRedisClient(ctx, redisCfg); err != nil {
			slog.Warn("Redis unavailable. Running without cache; usage is counted in the database.")
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	// Repository
	userRepo := authadapters.NewUserRepository(db)
	priceRepo := priceadapters.NewPriceRepository(db)
	resultCache := di.NewResultCache(rdb, svcCfg.CacheTimeout, m)
	usage := di.NewUsageCounter(rdb, db)

	// Usecase
	authUC := authusecase.NewAuthUsecase(userRepo, jwtmw.NewGenerator(jwtCfg.Secret, jwtCfg.Expiration))
	symbolUC := priceusecase.NewSymbolUsecase(priceRepo)
	indicatorUC := indicatorusecase.NewIndicatorUsecase(priceRepo, resultCache, usage, policy.New(table), svcCfg.Usecase, m)

	// ルータ生成
	r := router.NewRouter(router.Handlers{
		Health:     platformhandler.NewHealthHandler(resultCache),
		Auth:       authhandler.NewAuthHandler(authUC),
		Symbols:    pricehandler.NewSymbolHandler(symbolUC),
		Indicators: indicatorhandler.NewIndicatorHandler(indicatorUC),
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr, "cache_enabled", rdb != nil, "tiers", len(table))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
