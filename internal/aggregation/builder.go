package aggregation

import (
	"errors"
	"fmt"

	"amm-candle-oracle/internal/domain"
)

// ErrNoObservations is returned when a build has zero usable observations.
var ErrNoObservations = errors.New("no usable observations")

// SeriesBuilder produces the final deterministic candle series for one pool.
type SeriesBuilder struct {
	pool            string
	pairLabel       string
	intervalSeconds int64
}

// NewSeriesBuilder creates a builder for the given pool and interval.
func NewSeriesBuilder(pool, pairLabel string, intervalSeconds int64) (*SeriesBuilder, error) {
	if intervalSeconds <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %d", intervalSeconds)
	}
	return &SeriesBuilder{
		pool:            pool,
		pairLabel:       pairLabel,
		intervalSeconds: intervalSeconds,
	}, nil
}

// Build sorts the observations, aggregates them, and returns the ordered
// series plus consumption counts. Observations with a non-positive price
// (the "price undefined" marker) are excluded before aggregation. The input
// slice is not modified; output is identical for any permutation of the
// same input set.
func (b *SeriesBuilder) Build(observations []*domain.PriceObservation) (*domain.CandleSeries, error) {
	usable := make([]*domain.PriceObservation, 0, len(observations))
	for _, obs := range observations {
		if obs == nil || obs.Price.Sign() <= 0 {
			continue
		}
		usable = append(usable, obs)
	}
	if len(usable) == 0 {
		return nil, ErrNoObservations
	}

	SortObservations(usable)
	candles := Aggregate(usable, b.intervalSeconds)

	return &domain.CandleSeries{
		Pool:                 b.pool,
		PairLabel:            b.pairLabel,
		IntervalSeconds:      b.intervalSeconds,
		Candles:              candles,
		ObservationsConsumed: len(usable),
		CandlesEmitted:       len(candles),
	}, nil
}
