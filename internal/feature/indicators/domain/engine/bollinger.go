package engine

import "math"

// Bollinger returns the upper, middle and lower bands over period with the
// given standard-deviation multiplier. The deviation is the rolling sample
// standard deviation (n-1), so with period 1 only the middle band is defined.
func Bollinger(closes []float64, period int, multiplier float64) (upper, middle, lower []float64) {
	upper = absent(len(closes))
	lower = absent(len(closes))
	middle = SMA(closes, period)
	if period < 2 {
		return upper, middle, lower
	}

	for i := period - 1; i < len(closes); i++ {
		sd := sampleStdDev(closes[i-period+1:i+1], middle[i])
		upper[i] = middle[i] + multiplier*sd
		lower[i] = middle[i] - multiplier*sd
	}
	return upper, middle, lower
}

func sampleStdDev(xs []float64, mu float64) float64 {
	ss := 0.0
	for _, x := range xs {
		d := x - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
