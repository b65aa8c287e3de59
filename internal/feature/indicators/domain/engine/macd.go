package engine

// MACD returns the MACD line EMA(fast) - EMA(slow) and its signal line EMA(signal).
// Both lines share the input's date axis and have no warm-up gap; early signal
// values are dominated by the seed and only settle after a few signal spans.
func MACD(closes []float64, fast, slow, signal int) (line, signalLine []float64) {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	line = make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	return line, EMA(line, signal)
}
