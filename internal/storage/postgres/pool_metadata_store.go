package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"amm-candle-oracle/internal/domain"
	"amm-candle-oracle/internal/storage"
)

// PoolMetadataStore implements storage.PoolMetadataStore using PostgreSQL.
type PoolMetadataStore struct {
	pool *Pool
}

// NewPoolMetadataStore creates a new PoolMetadataStore.
func NewPoolMetadataStore(pool *Pool) *PoolMetadataStore {
	return &PoolMetadataStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolMetadataStore = (*PoolMetadataStore)(nil)

// Insert adds metadata for a pool. Returns ErrDuplicateKey if present.
func (s *PoolMetadataStore) Insert(ctx context.Context, meta *domain.PoolMetadata) error {
	if meta == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO pool_metadata (
			pool, kind, token0, token1, symbol0, symbol1,
			decimals0, decimals1, fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		meta.Pool.Hex(),
		string(meta.Kind),
		meta.Token0.Hex(),
		meta.Token1.Hex(),
		meta.Symbol0,
		meta.Symbol1,
		int16(meta.Decimals0),
		int16(meta.Decimals1),
		meta.FetchedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert pool metadata: %w", err)
	}
	return nil
}

// GetByPool retrieves metadata for a pool. Returns ErrNotFound if absent.
func (s *PoolMetadataStore) GetByPool(ctx context.Context, pool string) (*domain.PoolMetadata, error) {
	query := `
		SELECT pool, kind, token0, token1, symbol0, symbol1,
		       decimals0, decimals1, fetched_at
		FROM pool_metadata
		WHERE pool = $1
	`

	var meta domain.PoolMetadata
	var poolHex, kind, token0, token1 string
	var decimals0, decimals1 int16

	err := s.pool.QueryRow(ctx, query, pool).Scan(
		&poolHex, &kind, &token0, &token1,
		&meta.Symbol0, &meta.Symbol1,
		&decimals0, &decimals1, &meta.FetchedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query pool metadata: %w", err)
	}

	meta.Pool = common.HexToAddress(poolHex)
	meta.Kind = domain.PoolKind(kind)
	meta.Token0 = common.HexToAddress(token0)
	meta.Token1 = common.HexToAddress(token1)
	meta.Decimals0 = uint8(decimals0)
	meta.Decimals1 = uint8(decimals1)
	return &meta, nil
}
