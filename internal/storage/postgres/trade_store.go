package postgres

import (
	"context"
	"fmt"

	"amm-candle-oracle/internal/domain"
	"amm-candle-oracle/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const insertTradeQuery = `
	INSERT INTO trades (
		pool, block_number, log_index, timestamp, pair_label, direction,
		amount_in, amount_out, tx_hash
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

// Insert adds a trade. Returns ErrDuplicateKey if
// (pool, block_number, log_index) exists.
func (s *TradeStore) Insert(ctx context.Context, pool string, trade *domain.EnrichedTrade) error {
	if pool == "" || trade == nil {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertTradeQuery,
		pool,
		trade.BlockNumber,
		trade.LogIndex,
		trade.Timestamp,
		trade.PairLabel,
		string(trade.Direction),
		trade.AmountIn,
		trade.AmountOut,
		trade.TxHash,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any
// duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, pool string, trades []*domain.EnrichedTrade) error {
	if pool == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, trade := range trades {
		if trade == nil {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertTradeQuery,
			pool,
			trade.BlockNumber,
			trade.LogIndex,
			trade.Timestamp,
			trade.PairLabel,
			string(trade.Direction),
			trade.AmountIn,
			trade.AmountOut,
			trade.TxHash,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByPool retrieves all trades for a pool, ordered by
// (block_number, log_index) ASC.
func (s *TradeStore) GetByPool(ctx context.Context, pool string) ([]*domain.EnrichedTrade, error) {
	query := `
		SELECT block_number, log_index, timestamp, pair_label, direction,
		       amount_in, amount_out, tx_hash
		FROM trades
		WHERE pool = $1
		ORDER BY block_number ASC, log_index ASC
	`

	rows, err := s.pool.Query(ctx, query, pool)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var result []*domain.EnrichedTrade
	for rows.Next() {
		var trade domain.EnrichedTrade
		var direction string
		err := rows.Scan(
			&trade.BlockNumber,
			&trade.LogIndex,
			&trade.Timestamp,
			&trade.PairLabel,
			&direction,
			&trade.AmountIn,
			&trade.AmountOut,
			&trade.TxHash,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trade.Direction = domain.TradeDirection(direction)
		result = append(result, &trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return result, nil
}
