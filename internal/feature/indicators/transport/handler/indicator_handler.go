// Package handler はindicatorsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"indicator_backend/internal/feature/indicators/domain/entity"
	"indicator_backend/internal/feature/indicators/transport/http/dto"
	"indicator_backend/internal/feature/indicators/usecase"
	jwtmw "indicator_backend/internal/platform/jwt"
	"indicator_backend/internal/shared/market"
)

// IndicatorUsecase はインジケーター計算のユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type IndicatorUsecase interface {
	Compute(ctx context.Context, caller usecase.Caller, req entity.Request) ([]byte, error)
}

// IndicatorHandler はインジケーター計算のHTTPリクエストを処理します。
type IndicatorHandler struct {
	uc IndicatorUsecase
}

// NewIndicatorHandler は新しい IndicatorHandler を作成します。
func NewIndicatorHandler(uc IndicatorUsecase) *IndicatorHandler {
	return &IndicatorHandler{uc: uc}
}

// Handle は指定インジケーター用のハンドラーを返します。
//
// エンドポイント例:
// POST /indicators/sma {"symbol":"SIYSIL","start_date":"2023-01-01","end_date":"2023-03-31","window":20}
func (h *IndicatorHandler) Handle(ind entity.Indicator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.IndicatorRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body", Kind: "invalid_request"})
			return
		}

		req, err := toRequest(ind, body)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Kind: "invalid_request"})
			return
		}

		payload, err := h.uc.Compute(c.Request.Context(), callerFrom(c), req)
		if err != nil {
			writeError(c, err)
			return
		}

		// キャッシュ済みのバイト列をそのまま返す
		c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
	}
}

func toRequest(ind entity.Indicator, body dto.IndicatorRequest) (entity.Request, error) {
	start, err := market.ParseDate(body.StartDate)
	if err != nil {
		return entity.Request{}, errors.New("start_date: must be YYYY-MM-DD")
	}
	end, err := market.ParseDate(body.EndDate)
	if err != nil {
		return entity.Request{}, errors.New("end_date: must be YYYY-MM-DD")
	}

	p := entity.DefaultParams()
	if body.Window != nil {
		p.Window = *body.Window
	}
	if body.Period != nil {
		p.Period = *body.Period
	}
	if body.Fast != nil {
		p.Fast = *body.Fast
	}
	if body.Slow != nil {
		p.Slow = *body.Slow
	}
	if body.SignalPeriod != nil {
		p.Signal = *body.SignalPeriod
	}
	if body.StdMultiplier != nil {
		p.Multiplier = *body.StdMultiplier
	}

	return entity.Request{
		Symbol:    body.Symbol,
		Start:     start,
		End:       end,
		Indicator: ind,
		Params:    p,
	}, nil
}

// callerFrom は認証ミドルウェアがセットした値から呼び出し元を組み立てます。
func callerFrom(c *gin.Context) usecase.Caller {
	var caller usecase.Caller
	if v, ok := c.Get(jwtmw.ContextUserID); ok {
		caller.UserID, _ = v.(uint)
	}
	caller.Tier = c.GetString(jwtmw.ContextTier)
	return caller
}

func writeError(c *gin.Context, err error) {
	kind := usecase.ErrorKind(err)
	reason := usecase.Reason(err)

	var status int
	switch kind {
	case "invalid_request":
		status = http.StatusBadRequest
	case "policy_violation":
		status = http.StatusForbidden
	case "quota_exceeded":
		status = http.StatusTooManyRequests
	case "not_found":
		status = http.StatusNotFound
	case "backing_store_unavailable":
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
		slog.Error("indicator request failed", "path", c.FullPath(), "error", err)
		reason = "internal server error"
	}
	c.JSON(status, dto.ErrorResponse{Error: reason, Kind: kind})
}
