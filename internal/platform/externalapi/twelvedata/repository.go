package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"indicator_backend/internal/feature/prices/usecase"
	"indicator_backend/internal/platform/externalapi/twelvedata/dto"
	"indicator_backend/internal/shared/market"
)

const (
	dailyInterval = "1day"
	// maxOutputSize はTwelve Dataが1リクエストで返す最大件数です。
	maxOutputSize = 5000
)

// APIError はTwelve Dataが返したエラーです。HTTPステータスか本文の code を持ちます。
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("twelvedata: http %d", e.Code)
	}
	return fmt.Sprintf("twelvedata: %d %s", e.Code, e.Message)
}

// TwelveDataMarket はTwelve Data外部APIから日足を取得するMarketRepository実装です。
type TwelveDataMarket struct {
	cfg    Config
	client *http.Client
}

// TwelveDataMarketがMarketRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.MarketRepository = (*TwelveDataMarket)(nil)

// NewTwelveDataMarket は指定された設定とHTTPクライアントでTwelveDataMarketを生成します。
func NewTwelveDataMarket(cfg Config, client *http.Client) *TwelveDataMarket {
	return &TwelveDataMarket{cfg: cfg, client: client}
}

// GetDailySeries は [start, end] の日足を取得し、日付の昇順で返します。
func (t *TwelveDataMarket) GetDailySeries(ctx context.Context, symbol string, start, end time.Time) (market.Series, error) {
	q := url.Values{
		"symbol":     {symbol},
		"interval":   {dailyInterval},
		"start_date": {market.FormatDate(start)},
		"end_date":   {market.FormatDate(end)},
		"outputsize": {strconv.Itoa(maxOutputSize)},
		"order":      {"ASC"},
		"apikey":     {t.cfg.TwelveDataAPIKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.BaseURL+"/time_series?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	res, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twelvedata request %s: %w", symbol, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{Code: res.StatusCode}
	}

	var body dto.TimeSeriesResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode time_series: %w", err)
	}
	if body.Status == "error" {
		return nil, &APIError{Code: body.Code, Message: body.Message}
	}

	bars := make(market.Series, 0, len(body.Values))
	for _, v := range body.Values {
		b, err := toBar(symbol, v)
		if err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// toBar は文字列で返る1本分の値をBarに変換します。
func toBar(symbol string, v dto.TimeSeriesValue) (market.Bar, error) {
	// 日足でも時刻付きで返る場合があるため日付部分だけを使う
	dt := v.Datetime
	if len(dt) > len(market.DateLayout) {
		dt = dt[:len(market.DateLayout)]
	}
	d, err := market.ParseDate(dt)
	if err != nil {
		return market.Bar{}, fmt.Errorf("parse datetime %q: %w", v.Datetime, err)
	}

	b := market.Bar{Symbol: symbol, Date: d}
	for _, f := range []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"open", v.Open, &b.Open},
		{"high", v.High, &b.High},
		{"low", v.Low, &b.Low},
		{"close", v.Close, &b.Close},
	} {
		if *f.dst, err = strconv.ParseFloat(f.raw, 64); err != nil {
			return market.Bar{}, fmt.Errorf("parse %s %q: %w", f.name, f.raw, err)
		}
	}

	// 為替など出来高の無い銘柄は空文字が返る
	if v.Volume != "" {
		if b.Volume, err = strconv.ParseInt(v.Volume, 10, 64); err != nil {
			return market.Bar{}, fmt.Errorf("parse volume %q: %w", v.Volume, err)
		}
	}
	return b, nil
}
