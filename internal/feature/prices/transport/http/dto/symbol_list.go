// Package dto defines data transfer objects for the prices HTTP API.
package dto

// SymbolItem represents a symbol with stored prices in the API response.
type SymbolItem struct {
	Code      string `json:"code"`
	FirstDate string `json:"first_date"`
	LastDate  string `json:"last_date"`
	Bars      int64  `json:"bars"`
}
