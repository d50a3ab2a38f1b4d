package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"amm-candle-oracle/internal/domain"
	"amm-candle-oracle/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*domain.EnrichedTrade // pool -> key -> trade
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]map[string]*domain.EnrichedTrade),
	}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

func tradeKey(trade *domain.EnrichedTrade) string {
	return fmt.Sprintf("%d|%d", trade.BlockNumber, trade.LogIndex)
}

// Insert adds a trade. Returns ErrDuplicateKey if the chain coordinates
// already exist for the pool.
func (s *TradeStore) Insert(_ context.Context, pool string, trade *domain.EnrichedTrade) error {
	if pool == "" || trade == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertLocked(pool, trade)
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any
// duplicate, leaving the store unchanged.
func (s *TradeStore) InsertBulk(_ context.Context, pool string, trades []*domain.EnrichedTrade) error {
	if pool == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(trades))
	for _, trade := range trades {
		if trade == nil {
			return storage.ErrInvalidInput
		}
		key := tradeKey(trade)
		if _, exists := s.data[pool][key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[key]; exists {
			return storage.ErrDuplicateKey
		}
		batch[key] = struct{}{}
	}

	for _, trade := range trades {
		if err := s.insertLocked(pool, trade); err != nil {
			return err
		}
	}
	return nil
}

func (s *TradeStore) insertLocked(pool string, trade *domain.EnrichedTrade) error {
	key := tradeKey(trade)
	if s.data[pool] == nil {
		s.data[pool] = make(map[string]*domain.EnrichedTrade)
	}
	if _, exists := s.data[pool][key]; exists {
		return storage.ErrDuplicateKey
	}
	copied := *trade
	s.data[pool][key] = &copied
	return nil
}

// GetByPool retrieves all trades for a pool ordered by
// (block_number, log_index) ASC.
func (s *TradeStore) GetByPool(_ context.Context, pool string) ([]*domain.EnrichedTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.EnrichedTrade, 0, len(s.data[pool]))
	for _, trade := range s.data[pool] {
		copied := *trade
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].BlockNumber != result[j].BlockNumber {
			return result[i].BlockNumber < result[j].BlockNumber
		}
		return result[i].LogIndex < result[j].LogIndex
	})
	return result, nil
}
