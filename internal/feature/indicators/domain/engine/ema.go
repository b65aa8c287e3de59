package engine

// EMA returns the recursive exponential moving average with α = 2/(span+1),
// seeded with the first close. Every position has a value.
func EMA(closes []float64, span int) []float64 {
	out := make([]float64, len(closes))
	if len(closes) == 0 {
		return out
	}
	if span <= 0 {
		return absent(len(closes))
	}
	alpha := 2.0 / float64(span+1)
	out[0] = closes[0]
	for i := 1; i < len(closes); i++ {
		out[i] = alpha*closes[i] + (1-alpha)*out[i-1]
	}
	return out
}
