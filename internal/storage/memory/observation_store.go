// Package memory provides in-memory store implementations, used by the
// batch pipeline and as test doubles for the database-backed stores.
package memory

import (
	"context"
	"sync"

	"amm-candle-oracle/internal/domain"
	"amm-candle-oracle/internal/storage"
)

// ObservationStore is an in-memory implementation of
// storage.ObservationStore. Appends are safe for concurrent use; streaming
// workers share one store.
type ObservationStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.PriceObservation
}

// NewObservationStore creates a new in-memory observation store.
func NewObservationStore() *ObservationStore {
	return &ObservationStore{
		data: make(map[string][]*domain.PriceObservation),
	}
}

// Compile-time interface check.
var _ storage.ObservationStore = (*ObservationStore)(nil)

// Append adds one observation.
func (s *ObservationStore) Append(_ context.Context, pool string, obs *domain.PriceObservation) error {
	if pool == "" || obs == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *obs
	s.data[pool] = append(s.data[pool], &copied)
	return nil
}

// AppendBulk adds multiple observations.
func (s *ObservationStore) AppendBulk(ctx context.Context, pool string, observations []*domain.PriceObservation) error {
	if pool == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, obs := range observations {
		if obs == nil {
			return storage.ErrInvalidInput
		}
		copied := *obs
		s.data[pool] = append(s.data[pool], &copied)
	}
	return nil
}

// GetByPool retrieves all observations for a pool.
func (s *ObservationStore) GetByPool(_ context.Context, pool string) ([]*domain.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.data[pool]
	result := make([]*domain.PriceObservation, 0, len(stored))
	for _, obs := range stored {
		copied := *obs
		result = append(result, &copied)
	}
	return result, nil
}
