// Package ingestion moves raw pool events from the chain into the
// normalization and aggregation pipeline, in batch (backfill) and streaming
// modes.
package ingestion

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"amm-candle-oracle/internal/domain"
)

// BatchSource provides raw pool records over a closed block range.
type BatchSource interface {
	// Fetch returns records for a pool within [fromBlock, toBlock]
	// (inclusive). Records may be unordered; aggregation sorts before
	// reducing.
	Fetch(ctx context.Context, pool common.Address, fromBlock, toBlock uint64) ([]*domain.RawPoolRecord, error)
}

// StreamSource provides a live feed of raw pool records.
type StreamSource interface {
	// Subscribe starts delivery. The channel closes when the source shuts
	// down.
	Subscribe(ctx context.Context) (<-chan *domain.RawPoolRecord, error)

	// Close stops delivery and releases the underlying connection.
	Close() error
}
