package models

import "time"

// TimeSeriesMetadata describes a single-symbol series as reported by the provider.
type TimeSeriesMetadata struct {
	Symbol        string
	LastRefreshed time.Time
	TimeZone      *time.Location
}

// TimeSeriesResult is a provider response for one symbol, closes in provider order.
type TimeSeriesResult struct {
	Metadata TimeSeriesMetadata
	Closes   []DatedClose
}
