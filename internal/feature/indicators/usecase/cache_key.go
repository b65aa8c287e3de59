package usecase

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"indicator_backend/internal/feature/indicators/domain/entity"
	"indicator_backend/internal/shared/market"
)

// cacheNamespace prefixes every result cache key.
const cacheNamespace = "indicators"

// CacheKey builds the canonical cache key of req. Only parameters that affect
// the indicator's output are included, always in the same order, so two
// requests share a key exactly when they produce the same payload.
func CacheKey(req entity.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%s:%s:%s:%s",
		cacheNamespace,
		safe(req.Symbol),
		market.FormatDate(req.Start),
		market.FormatDate(req.End),
		req.Indicator,
	)

	p := req.Params
	switch req.Indicator {
	case entity.SMA, entity.EMA:
		fmt.Fprintf(&b, ":window=%d", p.Window)
	case entity.RSI:
		fmt.Fprintf(&b, ":period=%d", p.Period)
	case entity.MACD:
		fmt.Fprintf(&b, ":fast=%d:slow=%d:signal=%d", p.Fast, p.Slow, p.Signal)
	case entity.Bollinger:
		fmt.Fprintf(&b, ":window=%d:mult=%s", p.Window, strconv.FormatFloat(p.Multiplier, 'g', -1, 64))
	}
	return b.String()
}

// safe escapes the key separator and whitespace. The mapping is reversible,
// so distinct symbols never collide.
func safe(s string) string {
	return url.QueryEscape(s)
}
