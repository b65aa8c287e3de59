// Package dto defines data transfer objects for the Twelve Data API responses.
package dto

// TimeSeriesResponse is the body of GET /time_series. Numbers arrive as strings.
type TimeSeriesResponse struct {
	Status  string            `json:"status"`
	Code    int               `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Meta    TimeSeriesMeta    `json:"meta"`
	Values  []TimeSeriesValue `json:"values"`
}

// TimeSeriesMeta describes the requested instrument.
type TimeSeriesMeta struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	Exchange string `json:"exchange"`
}

// TimeSeriesValue is one bar.
type TimeSeriesValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume,omitempty"`
}
