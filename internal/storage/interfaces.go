package storage

import (
	"context"

	"amm-candle-oracle/internal/domain"
)

// ObservationStore is the working collection price observations accumulate
// in between normalization and aggregation.
type ObservationStore interface {
	// Append adds one observation.
	Append(ctx context.Context, pool string, obs *domain.PriceObservation) error

	// AppendBulk adds multiple observations.
	AppendBulk(ctx context.Context, pool string, observations []*domain.PriceObservation) error

	// GetByPool retrieves all observations for a pool. Order is unspecified;
	// aggregation sorts before reducing.
	GetByPool(ctx context.Context, pool string) ([]*domain.PriceObservation, error)
}

// TradeStore persists enriched per-trade records from the live path.
type TradeStore interface {
	// Insert adds a trade. Returns ErrDuplicateKey if
	// (pool, block_number, log_index) exists.
	Insert(ctx context.Context, pool string, trade *domain.EnrichedTrade) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any
	// duplicate.
	InsertBulk(ctx context.Context, pool string, trades []*domain.EnrichedTrade) error

	// GetByPool retrieves all trades for a pool, ordered by
	// (block_number, log_index) ASC.
	GetByPool(ctx context.Context, pool string) ([]*domain.EnrichedTrade, error)
}

// PoolMetadataStore caches per-pool token metadata.
type PoolMetadataStore interface {
	// Insert adds metadata for a pool. Returns ErrDuplicateKey if the pool
	// already has metadata.
	Insert(ctx context.Context, meta *domain.PoolMetadata) error

	// GetByPool retrieves metadata for a pool. Returns ErrNotFound if
	// absent.
	GetByPool(ctx context.Context, pool string) (*domain.PoolMetadata, error)
}

// CandleStore persists emitted candles. Candles are immutable once emitted.
type CandleStore interface {
	// InsertBulk adds multiple candles. Returns ErrDuplicateKey if a
	// (pool, interval_seconds, bucket_start) already exists.
	InsertBulk(ctx context.Context, pool string, intervalSeconds int64, candles []*domain.Candle) error

	// GetByPool retrieves all candles for a pool and interval, ordered by
	// bucket_start ASC.
	GetByPool(ctx context.Context, pool string, intervalSeconds int64) ([]*domain.Candle, error)
}
