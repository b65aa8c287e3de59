package entity

import "time"

// Series is one named output line of an indicator. Absent positions hold NaN.
type Series struct {
	Name   string
	Values []float64
}

// Result is the engine output aligned 1:1 with the request's date axis.
type Result struct {
	Dates  []time.Time
	Series []Series
}
