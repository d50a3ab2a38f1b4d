package aggregation

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"amm-candle-oracle/internal/domain"
)

func TestSeriesBuilder_Build(t *testing.T) {
	builder, err := NewSeriesBuilder("0xabc", "DAI-WETH", 60)
	if err != nil {
		t.Fatalf("NewSeriesBuilder: %v", err)
	}

	observations := []*domain.PriceObservation{
		obs(100, 10, 1, 0),
		obs(130, 12, 2, 0),
		obs(170, 9, 3, 0),
	}

	series, err := builder.Build(observations)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if series.ObservationsConsumed != 3 {
		t.Errorf("expected 3 observations consumed, got %d", series.ObservationsConsumed)
	}
	if series.CandlesEmitted != 2 || len(series.Candles) != 2 {
		t.Errorf("expected 2 candles emitted, got %d (len %d)", series.CandlesEmitted, len(series.Candles))
	}
	if series.Pool != "0xabc" || series.PairLabel != "DAI-WETH" || series.IntervalSeconds != 60 {
		t.Errorf("series metadata mismatch: %+v", series)
	}
}

func TestSeriesBuilder_PermutationIndependent(t *testing.T) {
	builder, err := NewSeriesBuilder("0xabc", "DAI-WETH", 300)
	if err != nil {
		t.Fatalf("NewSeriesBuilder: %v", err)
	}

	base := make([]*domain.PriceObservation, 0, 40)
	for i := 0; i < 40; i++ {
		base = append(base, obs(int64(100+i*37), float64(10+i%7), uint64(i/3), uint(i%3)))
	}

	reference, err := builder.Build(base)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]*domain.PriceObservation, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		series, err := builder.Build(shuffled)
		if err != nil {
			t.Fatalf("trial %d: Build: %v", trial, err)
		}
		if len(series.Candles) != len(reference.Candles) {
			t.Fatalf("trial %d: candle count %d != %d", trial, len(series.Candles), len(reference.Candles))
		}
		for i, candle := range series.Candles {
			ref := reference.Candles[i]
			if candle.BucketStart != ref.BucketStart ||
				!candle.Open.Equal(ref.Open) || !candle.High.Equal(ref.High) ||
				!candle.Low.Equal(ref.Low) || !candle.Close.Equal(ref.Close) ||
				!candle.Volume.Equal(ref.Volume) {
				t.Fatalf("trial %d: candle %d differs: %+v vs %+v", trial, i, candle, ref)
			}
		}
	}
}

func TestSeriesBuilder_ExcludesUndefinedPrices(t *testing.T) {
	builder, err := NewSeriesBuilder("0xabc", "DAI-WETH", 60)
	if err != nil {
		t.Fatalf("NewSeriesBuilder: %v", err)
	}

	observations := []*domain.PriceObservation{
		obs(100, 10, 1, 0),
		{Timestamp: 110, Price: decimal.Zero, VolumeProxy: decimal.NewFromInt(99), BlockNumber: 2},
	}

	series, err := builder.Build(observations)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if series.ObservationsConsumed != 1 {
		t.Errorf("expected zero-price observation excluded, consumed %d", series.ObservationsConsumed)
	}
	if !series.Candles[0].Volume.Equal(decimal.NewFromInt(1)) {
		t.Errorf("excluded observation leaked volume: %s", series.Candles[0].Volume)
	}
}

func TestSeriesBuilder_NoUsableObservations(t *testing.T) {
	builder, err := NewSeriesBuilder("0xabc", "DAI-WETH", 60)
	if err != nil {
		t.Fatalf("NewSeriesBuilder: %v", err)
	}

	_, err = builder.Build([]*domain.PriceObservation{
		{Timestamp: 100, Price: decimal.Zero},
	})
	if !errors.Is(err, ErrNoObservations) {
		t.Errorf("expected ErrNoObservations, got %v", err)
	}
}

func TestNewSeriesBuilder_InvalidInterval(t *testing.T) {
	if _, err := NewSeriesBuilder("0xabc", "DAI-WETH", 0); err == nil {
		t.Error("expected error for zero interval")
	}
	if _, err := NewSeriesBuilder("0xabc", "DAI-WETH", -60); err == nil {
		t.Error("expected error for negative interval")
	}
}
