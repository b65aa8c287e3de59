// Package market defines the daily price bar shared between the price store and the indicator engine.
package market

import "time"

// DateLayout is the ISO calendar date format used on the wire and in cache keys.
const DateLayout = "2006-01-02"

// Bar represents one daily OHLCV record for a symbol.
type Bar struct {
	Symbol string    // Ticker symbol (e.g., "AAPL", "SIYSIL")
	Date   time.Time // Trading day, midnight UTC
	Open   float64   // Opening price
	High   float64   // Highest price of the day
	Low    float64   // Lowest price of the day
	Close  float64   // Closing price
	Volume int64     // Traded volume
}

// Series is a date-ascending slice of bars for one symbol without duplicate dates.
type Series []Bar

// Closes returns the closing prices in series order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Dates returns the trading days in series order.
func (s Series) Dates() []time.Time {
	out := make([]time.Time, len(s))
	for i, b := range s {
		out[i] = b.Date
	}
	return out
}

// ParseDate parses an ISO calendar date into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate formats t as an ISO calendar date in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
