package memory

import (
	"context"
	"sort"
	"sync"

	"solana-fund-tracer/internal/domain"
	"solana-fund-tracer/internal/storage"
)

// TraceStore is an in-memory implementation of storage.TraceStore.
type TraceStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TraceRecord // keyed by trace_id
}

// NewTraceStore creates a new in-memory trace store.
func NewTraceStore() *TraceStore {
	return &TraceStore{data: make(map[string]*domain.TraceRecord)}
}

var _ storage.TraceStore = (*TraceStore)(nil)

// Insert adds a new trace. Returns ErrDuplicateKey if trace_id exists.
func (s *TraceStore) Insert(_ context.Context, t *domain.TraceRecord) error {
	if t == nil || t.TraceID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.TraceID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *t
	s.data[t.TraceID] = &cp
	return nil
}

// GetByID retrieves a trace by its ID. Returns ErrNotFound if not exists.
func (s *TraceStore) GetByID(_ context.Context, traceID string) (*domain.TraceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data[traceID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// GetBySourceAddress retrieves all traces for a victim address.
func (s *TraceStore) GetBySourceAddress(_ context.Context, address string) ([]*domain.TraceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TraceRecord
	for _, t := range s.data {
		if t.SourceAddress == address {
			cp := *t
			result = append(result, &cp)
		}
	}
	sortTracesDesc(result)
	return result, nil
}

// GetRecent retrieves the most recent traces.
func (s *TraceStore) GetRecent(_ context.Context, limit int) ([]*domain.TraceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TraceRecord, 0, len(s.data))
	for _, t := range s.data {
		cp := *t
		result = append(result, &cp)
	}
	sortTracesDesc(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func sortTracesDesc(traces []*domain.TraceRecord) {
	sort.Slice(traces, func(i, j int) bool {
		if traces[i].StartedAt != traces[j].StartedAt {
			return traces[i].StartedAt > traces[j].StartedAt
		}
		return traces[i].TraceID < traces[j].TraceID
	})
}
