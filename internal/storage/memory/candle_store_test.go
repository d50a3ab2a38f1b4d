package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"amm-candle-oracle/internal/domain"
	"amm-candle-oracle/internal/storage"
)

func candle(bucketStart int64, close float64) *domain.Candle {
	price := decimal.NewFromFloat(close)
	return &domain.Candle{
		BucketStart: bucketStart,
		Open:        price,
		High:        price,
		Low:         price,
		Close:       price,
		Volume:      decimal.NewFromInt(1),
	}
}

func TestCandleStore_InsertBulkAndGet(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, "0xpool", 60, []*domain.Candle{
		candle(120, 2), candle(60, 1),
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByPool(ctx, "0xpool", 60)
	if err != nil {
		t.Fatalf("GetByPool failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(result))
	}
	if result[0].BucketStart != 60 || result[1].BucketStart != 120 {
		t.Errorf("expected ascending bucket starts, got %d, %d", result[0].BucketStart, result[1].BucketStart)
	}
}

func TestCandleStore_DuplicateBucket(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "0xpool", 60, []*domain.Candle{candle(60, 1)}); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, "0xpool", 60, []*domain.Candle{candle(60, 2)})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestCandleStore_IntervalIsolation(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "0xpool", 60, []*domain.Candle{candle(60, 1)}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.InsertBulk(ctx, "0xpool", 300, []*domain.Candle{candle(0, 1)}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	result, err := store.GetByPool(ctx, "0xpool", 300)
	if err != nil {
		t.Fatalf("GetByPool failed: %v", err)
	}
	if len(result) != 1 || result[0].BucketStart != 0 {
		t.Errorf("expected only the 300s candle, got %d candles", len(result))
	}
}

func TestCandleStore_ImmutableCopies(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	original := candle(60, 1)
	if err := store.InsertBulk(ctx, "0xpool", 60, []*domain.Candle{original}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// Mutating the caller's candle must not affect the stored copy.
	original.Close = decimal.NewFromInt(999)

	result, _ := store.GetByPool(ctx, "0xpool", 60)
	if !result[0].Close.Equal(decimal.NewFromInt(1)) {
		t.Errorf("stored candle mutated: close = %s", result[0].Close)
	}
}
