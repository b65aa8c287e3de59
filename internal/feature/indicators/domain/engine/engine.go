// Package engine implements the batch indicator computations.
//
// Every function is pure: it reads a price window that is already filtered to
// the requested symbol and dates, and returns series of the same length and
// order. Positions without a value (warm-up gaps, undefined ratios) hold NaN;
// the usecase layer turns them into explicit absent markers before anything is
// serialized.
package engine

import (
	"fmt"
	"math"

	"indicator_backend/internal/feature/indicators/domain/entity"
	"indicator_backend/internal/shared/market"
)

// Series names emitted by Compute.
const (
	SeriesValues     = "values"
	SeriesMACD       = "macd"
	SeriesSignal     = "signal"
	SeriesUpperBand  = "upper_band"
	SeriesMiddleBand = "middle_band"
	SeriesLowerBand  = "lower_band"
)

// Compute runs the indicator named by ind over series using p.
func Compute(ind entity.Indicator, series market.Series, p entity.Params) (entity.Result, error) {
	closes := series.Closes()
	res := entity.Result{Dates: series.Dates()}

	switch ind {
	case entity.SMA:
		res.Series = []entity.Series{{Name: SeriesValues, Values: SMA(closes, p.Window)}}
	case entity.EMA:
		res.Series = []entity.Series{{Name: SeriesValues, Values: EMA(closes, p.Window)}}
	case entity.RSI:
		res.Series = []entity.Series{{Name: SeriesValues, Values: RSI(closes, p.Period)}}
	case entity.MACD:
		line, signal := MACD(closes, p.Fast, p.Slow, p.Signal)
		res.Series = []entity.Series{
			{Name: SeriesMACD, Values: line},
			{Name: SeriesSignal, Values: signal},
		}
	case entity.Bollinger:
		upper, middle, lower := Bollinger(closes, p.Window, p.Multiplier)
		res.Series = []entity.Series{
			{Name: SeriesUpperBand, Values: upper},
			{Name: SeriesMiddleBand, Values: middle},
			{Name: SeriesLowerBand, Values: lower},
		}
	case entity.VWAP:
		res.Series = []entity.Series{{Name: SeriesValues, Values: VWAP(series)}}
	default:
		return entity.Result{}, fmt.Errorf("engine: unsupported indicator %q", ind)
	}
	return res, nil
}

// absent returns a slice of n NaN values.
func absent(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
