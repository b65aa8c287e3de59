// Package dto はindicatorsフィーチャーのHTTPリクエスト/レスポンスDTOを定義します。
package dto

// IndicatorRequest は POST /indicators/{name} のリクエストボディです。
// 省略されたパラメータはデフォルト値で補完されるため、数値はポインタで受け取ります。
type IndicatorRequest struct {
	Symbol        string   `json:"symbol" binding:"required"`
	StartDate     string   `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate       string   `json:"end_date" binding:"required"`   // YYYY-MM-DD
	Window        *int     `json:"window,omitempty"`
	Period        *int     `json:"period,omitempty"`
	Fast          *int     `json:"fast,omitempty"`
	Slow          *int     `json:"slow,omitempty"`
	SignalPeriod  *int     `json:"signal_period,omitempty"`
	StdMultiplier *float64 `json:"std_multiplier,omitempty"`
}

// ErrorResponse はエラー時のレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
