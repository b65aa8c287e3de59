package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"indicator_backend/internal/feature/prices/domain/entity"
	"indicator_backend/internal/feature/prices/transport/http/dto"
	"indicator_backend/internal/shared/market"
)

// SymbolUsecase は銘柄情報に関するユースケースのインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type SymbolUsecase interface {
	ListSymbols(ctx context.Context) ([]entity.SymbolCoverage, error)
}

// SymbolHandler は銘柄情報に関するHTTPリクエストを処理します。
type SymbolHandler struct {
	uc SymbolUsecase
}

// NewSymbolHandler は新しい SymbolHandler を作成します。
func NewSymbolHandler(uc SymbolUsecase) *SymbolHandler {
	return &SymbolHandler{uc: uc}
}

// List は価格が保存されている銘柄の一覧を返すAPIです。
// Usecaseでエラーが発生した場合は503を返します。内部のエラー内容はログにのみ残します。
func (h *SymbolHandler) List(c *gin.Context) {
	symbols, err := h.uc.ListSymbols(c.Request.Context())
	if err != nil {
		slog.Error("failed to list symbols", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "price store unavailable",
			"kind":  "backing_store_unavailable",
		})
		return
	}
	out := make([]dto.SymbolItem, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, dto.SymbolItem{
			Code:      s.Symbol,
			FirstDate: market.FormatDate(s.First),
			LastDate:  market.FormatDate(s.Last),
			Bars:      s.Bars,
		})
	}
	c.JSON(http.StatusOK, out)
}
