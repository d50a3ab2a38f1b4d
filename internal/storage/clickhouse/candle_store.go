package clickhouse

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"amm-candle-oracle/internal/domain"
	"amm-candle-oracle/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse. Decimal
// values are stored as strings so the aggregation precision survives the
// round trip.
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// InsertBulk adds multiple candles. Returns ErrDuplicateKey if a
// (pool, interval_seconds, bucket_start) already exists.
func (s *CandleStore) InsertBulk(ctx context.Context, pool string, intervalSeconds int64, candles []*domain.Candle) error {
	if pool == "" || intervalSeconds <= 0 {
		return storage.ErrInvalidInput
	}
	if len(candles) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[int64]struct{}, len(candles))
	for _, c := range candles {
		if c == nil {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[c.BucketStart]; exists {
			return storage.ErrDuplicateKey
		}
		seen[c.BucketStart] = struct{}{}
	}

	// MergeTree doesn't enforce uniqueness, so check against existing rows
	// before sending the batch.
	for _, c := range candles {
		exists, err := s.exists(ctx, pool, intervalSeconds, c.BucketStart)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			pool, interval_seconds, bucket_start, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range candles {
		err = batch.Append(
			pool, uint32(intervalSeconds), c.BucketStart,
			c.Open.String(), c.High.String(), c.Low.String(), c.Close.String(),
			c.Volume.String(),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPool retrieves all candles for a pool and interval, ordered by
// bucket_start ASC.
func (s *CandleStore) GetByPool(ctx context.Context, pool string, intervalSeconds int64) ([]*domain.Candle, error) {
	query := `
		SELECT bucket_start, open, high, low, close, volume
		FROM candles
		WHERE pool = ? AND interval_seconds = ?
		ORDER BY bucket_start ASC
	`

	rows, err := s.conn.Query(ctx, query, pool, uint32(intervalSeconds))
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	var candles []*domain.Candle
	for rows.Next() {
		var c domain.Candle
		var open, high, low, closeP, volume string

		err := rows.Scan(&c.BucketStart, &open, &high, &low, &closeP, &volume)
		if err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}

		if c.Open, err = decimal.NewFromString(open); err != nil {
			return nil, fmt.Errorf("parse open %q: %w", open, err)
		}
		if c.High, err = decimal.NewFromString(high); err != nil {
			return nil, fmt.Errorf("parse high %q: %w", high, err)
		}
		if c.Low, err = decimal.NewFromString(low); err != nil {
			return nil, fmt.Errorf("parse low %q: %w", low, err)
		}
		if c.Close, err = decimal.NewFromString(closeP); err != nil {
			return nil, fmt.Errorf("parse close %q: %w", closeP, err)
		}
		if c.Volume, err = decimal.NewFromString(volume); err != nil {
			return nil, fmt.Errorf("parse volume %q: %w", volume, err)
		}

		candles = append(candles, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}

	return candles, nil
}

// exists checks if a candle with the given key exists.
func (s *CandleStore) exists(ctx context.Context, pool string, intervalSeconds, bucketStart int64) (bool, error) {
	query := `
		SELECT count(*) FROM candles
		WHERE pool = ? AND interval_seconds = ? AND bucket_start = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, pool, uint32(intervalSeconds), bucketStart).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
