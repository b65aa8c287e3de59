// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"indicator_backend/internal/platform/cache"
)

// CachePinger は結果キャッシュの疎通確認です。
type CachePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler は /healthz を処理します。
type HealthHandler struct {
	cache CachePinger
}

// NewHealthHandler は新しい HealthHandler を作成します。
func NewHealthHandler(c CachePinger) *HealthHandler {
	return &HealthHandler{cache: c}
}

// Health はサービスヘルスチェック用の /healthz エンドポイントを処理します。
// キャッシュはベストエフォートのため、停止中でも200を返し cache フィールドで状態を示します。
func (h *HealthHandler) Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok", "cache": h.cacheState(c.Request.Context())})
	}
}

func (h *HealthHandler) cacheState(ctx context.Context) string {
	if h.cache == nil {
		return "disabled"
	}
	err := h.cache.Ping(ctx)
	switch {
	case err == nil:
		return "up"
	case errors.Is(err, cache.ErrDisabled):
		return "disabled"
	default:
		return "down"
	}
}
