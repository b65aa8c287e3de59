package entity

import (
	"fmt"
	"strings"
	"time"
)

// Default indicator parameters applied when a request omits them.
const (
	DefaultWindow     = 14
	DefaultPeriod     = 14
	DefaultFast       = 12
	DefaultSlow       = 26
	DefaultSignal     = 9
	DefaultMultiplier = 2.0

	// MaxParam は整数パラメータ（window, period, span）の上限です。
	MaxParam = 10_000
)

// Params holds every numeric indicator parameter. Each indicator reads only the fields it needs.
type Params struct {
	Window     int     // SMA/EMA window, Bollinger period
	Period     int     // RSI period
	Fast       int     // MACD fast EMA span
	Slow       int     // MACD slow EMA span
	Signal     int     // MACD signal EMA span
	Multiplier float64 // Bollinger standard-deviation multiplier
}

// DefaultParams returns the documented parameter defaults.
func DefaultParams() Params {
	return Params{
		Window:     DefaultWindow,
		Period:     DefaultPeriod,
		Fast:       DefaultFast,
		Slow:       DefaultSlow,
		Signal:     DefaultSignal,
		Multiplier: DefaultMultiplier,
	}
}

// Request is a validated-shape indicator request over a closed date range.
type Request struct {
	Symbol    string
	Start     time.Time
	End       time.Time
	Indicator Indicator
	Params    Params
}

// FieldError reports which request field failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the request invariants for the fields the indicator uses.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return &FieldError{Field: "symbol", Message: "is required"}
	}
	if r.Start.IsZero() {
		return &FieldError{Field: "start_date", Message: "is required"}
	}
	if r.End.IsZero() {
		return &FieldError{Field: "end_date", Message: "is required"}
	}
	if r.End.Before(r.Start) {
		return &FieldError{Field: "end_date", Message: "must not be before start_date"}
	}

	p := r.Params
	switch r.Indicator {
	case SMA, EMA:
		return positive("window", p.Window)
	case RSI:
		return positive("period", p.Period)
	case MACD:
		if err := positive("fast", p.Fast); err != nil {
			return err
		}
		if err := positive("slow", p.Slow); err != nil {
			return err
		}
		return positive("signal_period", p.Signal)
	case Bollinger:
		if err := positive("window", p.Window); err != nil {
			return err
		}
		if !(p.Multiplier > 0) {
			return &FieldError{Field: "std_multiplier", Message: "must be a positive number"}
		}
		return nil
	case VWAP:
		return nil
	default:
		return &FieldError{Field: "indicator", Message: fmt.Sprintf("unsupported indicator %q", r.Indicator)}
	}
}

func positive(field string, v int) error {
	if v <= 0 {
		return &FieldError{Field: field, Message: "must be a positive integer"}
	}
	if v > MaxParam {
		return &FieldError{Field: field, Message: fmt.Sprintf("must not exceed %d", MaxParam)}
	}
	return nil
}
