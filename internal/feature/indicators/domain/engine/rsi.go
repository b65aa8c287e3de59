package engine

// RSI returns the relative strength index over period close-to-close deltas,
// using simple rolling means of gains and loss magnitudes.
// The first period positions are NaN, as is any position where the average
// loss is zero (RS undefined).
func RSI(closes []float64, period int) []float64 {
	out := absent(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}

	for i := period; i < len(closes); i++ {
		avgGain := mean(gains[i-period+1 : i+1])
		avgLoss := mean(losses[i-period+1 : i+1])
		if avgLoss == 0 {
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}
