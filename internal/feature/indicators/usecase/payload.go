package usecase

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/guregu/null/v6"

	"indicator_backend/internal/feature/indicators/domain/entity"
	"indicator_backend/internal/shared/market"
)

// EncodePayload serializes res as {"dates":[...], "<series>":[number|null,...]}.
// NaN and ±Inf become null here and nowhere else. Keys are emitted in sorted
// order, so equal results always encode to equal bytes.
func EncodePayload(res entity.Result) ([]byte, error) {
	out := make(map[string]any, len(res.Series)+1)

	dates := make([]string, len(res.Dates))
	for i, d := range res.Dates {
		dates[i] = market.FormatDate(d)
	}
	out["dates"] = dates

	for _, s := range res.Series {
		if len(s.Values) != len(dates) {
			return nil, fmt.Errorf("series %q has %d values for %d dates", s.Name, len(s.Values), len(dates))
		}
		vals := make([]null.Float, len(s.Values))
		for i, v := range s.Values {
			vals[i] = null.NewFloat(v, !math.IsNaN(v) && !math.IsInf(v, 0))
		}
		out[s.Name] = vals
	}

	return json.Marshal(out)
}
