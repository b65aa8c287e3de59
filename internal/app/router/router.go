// Package router はHTTPルーティングを組み立てます。
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authhandler "indicator_backend/internal/feature/auth/transport/handler"
	"indicator_backend/internal/feature/indicators/domain/entity"
	indicatorhandler "indicator_backend/internal/feature/indicators/transport/handler"
	pricehandler "indicator_backend/internal/feature/prices/transport/handler"
	platformhandler "indicator_backend/internal/platform/http/handler"
	"indicator_backend/internal/platform/http/middleware"
	jwtmw "indicator_backend/internal/platform/jwt"
)

// Handlers はルーターに登録するハンドラー一式です。
type Handlers struct {
	Health     *platformhandler.HealthHandler
	Auth       *authhandler.AuthHandler
	Symbols    *pricehandler.SymbolHandler
	Indicators *indicatorhandler.IndicatorHandler
	Metrics    http.Handler // Prometheus exposition
}

func NewRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog())

	// 認証不要
	// 導通確認用
	r.GET("/healthz", h.Health.Health)
	r.HEAD("/healthz", h.Health.Health)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}
	// 新規ユーザー登録
	r.POST("/signup", h.Auth.Signup)
	// ログイン（JWT 発行）
	r.POST("/login", h.Auth.Login)

	// 認証必須のルート
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired())
	{
		auth.GET("/symbols", h.Symbols.List)

		// インジケーターごとに1エンドポイント
		ind := auth.Group("/indicators")
		for _, name := range entity.All {
			ind.POST("/"+string(name), h.Indicators.Handle(name))
		}
	}

	return r
}
