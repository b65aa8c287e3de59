// Package entity defines the domain models for the indicators feature.
package entity

import "strings"

// Indicator identifies a technical indicator by its lower-case name.
type Indicator string

const (
	SMA       Indicator = "sma"
	EMA       Indicator = "ema"
	RSI       Indicator = "rsi"
	MACD      Indicator = "macd"
	Bollinger Indicator = "bollinger"
	VWAP      Indicator = "vwap"
)

// All lists every supported indicator in display order.
var All = []Indicator{SMA, EMA, RSI, MACD, Bollinger, VWAP}

// ParseIndicator normalizes s and reports whether it names a supported indicator.
func ParseIndicator(s string) (Indicator, bool) {
	ind := Indicator(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range All {
		if ind == known {
			return ind, true
		}
	}
	return "", false
}

// Label returns the display form used in caller-facing messages ("SMA", "Bollinger").
func (i Indicator) Label() string {
	if i == Bollinger {
		return "Bollinger"
	}
	return strings.ToUpper(string(i))
}
