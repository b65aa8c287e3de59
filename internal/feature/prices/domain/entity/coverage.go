// Package entity defines the domain models for the prices feature.
package entity

import "time"

// SymbolCoverage summarizes the stored daily bars of one symbol.
type SymbolCoverage struct {
	Symbol string
	First  time.Time // oldest stored trading day
	Last   time.Time // newest stored trading day
	Bars   int64
}
