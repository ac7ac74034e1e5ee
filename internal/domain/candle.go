package domain

import "context"

// Candle is a single OHLCV bar returned by the market-data provider.
type Candle struct {
	OpenTime int64
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// CandleSource supplies an ordered window of recent closing prices for an
// instrument at a sampling interval, oldest first. Implementations carry a
// bounded request timeout; a timeout surfaces as an ordinary error.
type CandleSource interface {
	Closes(ctx context.Context, instrument, interval string, limit int) ([]float64, error)
}
