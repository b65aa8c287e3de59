package engine

// SMA returns the trailing arithmetic mean of closes over window points.
// The first window-1 positions are NaN.
func SMA(closes []float64, window int) []float64 {
	out := absent(len(closes))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(closes); i++ {
		out[i] = mean(closes[i-window+1 : i+1])
	}
	return out
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
