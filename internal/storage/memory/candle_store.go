package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"amm-candle-oracle/internal/domain"
	"amm-candle-oracle/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Candle // keyed by (pool, interval, bucket start)
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{
		data: make(map[string]*domain.Candle),
	}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

func candleKey(pool string, intervalSeconds, bucketStart int64) string {
	return fmt.Sprintf("%s|%d|%d", pool, intervalSeconds, bucketStart)
}

// InsertBulk adds candles. Fails the entire batch on any duplicate bucket,
// leaving the store unchanged.
func (s *CandleStore) InsertBulk(_ context.Context, pool string, intervalSeconds int64, candles []*domain.Candle) error {
	if pool == "" || intervalSeconds <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(candles))
	for _, candle := range candles {
		if candle == nil {
			return storage.ErrInvalidInput
		}
		key := candleKey(pool, intervalSeconds, candle.BucketStart)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[key]; exists {
			return storage.ErrDuplicateKey
		}
		batch[key] = struct{}{}
	}

	for _, candle := range candles {
		copied := *candle
		s.data[candleKey(pool, intervalSeconds, candle.BucketStart)] = &copied
	}
	return nil
}

// GetByPool retrieves all candles for a pool and interval, ordered by
// bucket_start ASC.
func (s *CandleStore) GetByPool(_ context.Context, pool string, intervalSeconds int64) ([]*domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := fmt.Sprintf("%s|%d|", pool, intervalSeconds)
	var result []*domain.Candle
	for key, candle := range s.data {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			copied := *candle
			result = append(result, &copied)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].BucketStart < result[j].BucketStart
	})
	return result, nil
}
