package engine

import (
	"math"

	"indicator_backend/internal/shared/market"
)

// VWAP returns the cumulative volume-weighted typical price, accumulated from
// the first bar of the given window. Positions where cumulative volume is
// still zero are NaN.
func VWAP(bars market.Series) []float64 {
	out := make([]float64, len(bars))
	var cumPV, cumVol float64
	for i, b := range bars {
		typical := (b.High + b.Low + b.Close) / 3
		cumPV += typical * float64(b.Volume)
		cumVol += float64(b.Volume)
		if cumVol == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = cumPV / cumVol
	}
	return out
}
