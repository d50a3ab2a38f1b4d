package memory

import (
	"context"
	"sync"

	"amm-candle-oracle/internal/domain"
	"amm-candle-oracle/internal/storage"
)

// PoolMetadataStore is an in-memory implementation of
// storage.PoolMetadataStore.
type PoolMetadataStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PoolMetadata // keyed by pool address hex
}

// NewPoolMetadataStore creates a new in-memory pool metadata store.
func NewPoolMetadataStore() *PoolMetadataStore {
	return &PoolMetadataStore{
		data: make(map[string]*domain.PoolMetadata),
	}
}

// Compile-time interface check.
var _ storage.PoolMetadataStore = (*PoolMetadataStore)(nil)

// Insert adds metadata for a pool. Returns ErrDuplicateKey if present.
func (s *PoolMetadataStore) Insert(_ context.Context, meta *domain.PoolMetadata) error {
	if meta == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := meta.Pool.Hex()
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}
	copied := *meta
	s.data[key] = &copied
	return nil
}

// GetByPool retrieves metadata for a pool. Returns ErrNotFound if absent.
func (s *PoolMetadataStore) GetByPool(_ context.Context, pool string) (*domain.PoolMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.data[pool]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *meta
	return &copied, nil
}
