package memory

import (
	"context"
	"sort"
	"sync"

	"solana-fund-tracer/internal/domain"
	"solana-fund-tracer/internal/storage"
)

// EntityStore is an in-memory implementation of storage.EntityStore.
type EntityStore struct {
	mu   sync.RWMutex
	data map[string]*domain.EntityRecord // keyed by address
}

// NewEntityStore creates a new in-memory entity store.
func NewEntityStore() *EntityStore {
	return &EntityStore{data: make(map[string]*domain.EntityRecord)}
}

var _ storage.EntityStore = (*EntityStore)(nil)

// Insert adds an entity. Returns ErrDuplicateKey if the address exists.
func (s *EntityStore) Insert(_ context.Context, e *domain.EntityRecord) error {
	if e == nil || e.Address == "" || !e.Category.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.Address]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *e
	s.data[e.Address] = &cp
	return nil
}

// GetByAddress retrieves an entity. Returns ErrNotFound if not exists.
func (s *EntityStore) GetByAddress(_ context.Context, address string) (*domain.EntityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[address]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// GetAll retrieves all entities, ordered by address.
func (s *EntityStore) GetAll(_ context.Context) ([]*domain.EntityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.EntityRecord, 0, len(s.data))
	for _, e := range s.data {
		cp := *e
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Address < result[j].Address
	})
	return result, nil
}
