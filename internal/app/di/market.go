// Package di はコンポーネントの生成と組み立てを行います。
package di

import (
	"errors"

	"indicator_backend/internal/platform/externalapi/twelvedata"
	infrahttp "indicator_backend/internal/platform/http"
)

// NewMarket は環境変数の設定でTwelve Dataクライアントを生成します。
// APIキーが無い場合は取り込みを始める前にエラーを返します。
func NewMarket() (*twelvedata.TwelveDataMarket, error) {
	cfg := twelvedata.LoadConfig()
	if cfg.TwelveDataAPIKey == "" {
		return nil, errors.New("TWELVE_DATA_API_KEY is not set")
	}
	return twelvedata.NewTwelveDataMarket(cfg, infrahttp.NewHTTPClient(cfg.Timeout)), nil
}
