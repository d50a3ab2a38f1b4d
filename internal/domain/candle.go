package domain

import "github.com/shopspring/decimal"

// Candle is an OHLCV summary of one fixed-width time bucket. Immutable once
// emitted. Invariant: Low <= min(Open, Close) and High >= max(Open, Close)
// whenever Volume > 0. A bucket with zero observations is never emitted.
type Candle struct {
	BucketStart int64 // bucket start, epoch seconds, multiple of the interval
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Close       decimal.Decimal
	Volume      decimal.Decimal
}

// CandleSeries is the deterministic output of a build: candles ordered
// ascending by BucketStart with no duplicate buckets, plus input/output
// counts for the caller's bookkeeping.
type CandleSeries struct {
	Pool                 string    // pool address, hex
	PairLabel            string    // "<symbol0>-<symbol1>"
	IntervalSeconds      int64     // bucket width
	Candles              []*Candle // ascending by BucketStart
	ObservationsConsumed int       // observations that entered aggregation
	CandlesEmitted       int       // len(Candles)
}
