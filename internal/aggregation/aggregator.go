// Package aggregation groups price observations into fixed-width,
// calendar-aligned buckets and reduces each bucket into an OHLCV candle.
package aggregation

import (
	"sort"

	"amm-candle-oracle/internal/domain"
)

// BucketStart maps a timestamp to the start of its containing bucket:
// floor(timestamp / intervalSeconds) * intervalSeconds. Buckets are aligned
// to absolute epoch time, not to the first observation seen.
func BucketStart(timestamp, intervalSeconds int64) int64 {
	q := timestamp / intervalSeconds
	if timestamp%intervalSeconds < 0 {
		q--
	}
	return q * intervalSeconds
}

// SortObservations orders observations by (timestamp, block number, log
// index) ascending. The sort is stable, so observations lacking chain
// coordinates keep their relative input order.
func SortObservations(observations []*domain.PriceObservation) {
	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].Less(observations[j])
	})
}

// Aggregate groups observations by bucket and reduces each bucket into a
// candle: open = first price, close = last price, high/low = extremes,
// volume = sum of volume proxies. Within a bucket the open/close ordering
// is recomputed by sorting, so late or out-of-order arrivals never corrupt
// the result. Empty buckets are never materialized. Output is ordered
// ascending by bucket start.
func Aggregate(observations []*domain.PriceObservation, intervalSeconds int64) []*domain.Candle {
	if len(observations) == 0 || intervalSeconds <= 0 {
		return nil
	}

	buckets := make(map[int64][]*domain.PriceObservation)
	for _, obs := range observations {
		start := BucketStart(obs.Timestamp, intervalSeconds)
		buckets[start] = append(buckets[start], obs)
	}

	starts := make([]int64, 0, len(buckets))
	for start := range buckets {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	candles := make([]*domain.Candle, 0, len(starts))
	for _, start := range starts {
		candles = append(candles, reduceBucket(start, buckets[start]))
	}
	return candles
}

// reduceBucket computes one candle from a non-empty bucket.
func reduceBucket(start int64, bucket []*domain.PriceObservation) *domain.Candle {
	SortObservations(bucket)

	candle := &domain.Candle{
		BucketStart: start,
		Open:        bucket[0].Price,
		High:        bucket[0].Price,
		Low:         bucket[0].Price,
		Close:       bucket[len(bucket)-1].Price,
		Volume:      bucket[0].VolumeProxy,
	}

	for _, obs := range bucket[1:] {
		if obs.Price.GreaterThan(candle.High) {
			candle.High = obs.Price
		}
		if obs.Price.LessThan(candle.Low) {
			candle.Low = obs.Price
		}
		candle.Volume = candle.Volume.Add(obs.VolumeProxy)
	}
	return candle
}
