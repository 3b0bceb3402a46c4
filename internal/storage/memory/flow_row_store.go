package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"solana-fund-tracer/internal/domain"
	"solana-fund-tracer/internal/storage"
)

// FlowRowStore is an in-memory implementation of storage.FlowRowStore.
type FlowRowStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.FlowRow // keyed by composite key
	nextID int64
}

// NewFlowRowStore creates a new in-memory flow-row store.
func NewFlowRowStore() *FlowRowStore {
	return &FlowRowStore{data: make(map[string]*domain.FlowRow)}
}

var _ storage.FlowRowStore = (*FlowRowStore)(nil)

// flowRowKey generates a unique key for a flow row.
func flowRowKey(traceID, txSignature, address string, hop int) string {
	return fmt.Sprintf("%s|%s|%s|%d", traceID, txSignature, address, hop)
}

// InsertBulk adds all rows of one trace atomically.
// Fails the entire batch on any duplicate.
func (s *FlowRowStore) InsertBulk(_ context.Context, rows []*domain.FlowRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row == nil || row.TraceID == "" {
			return storage.ErrInvalidInput
		}
		key := flowRowKey(row.TraceID, row.TxSignature, row.Address, row.Hop)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, row := range rows {
		s.nextID++
		cp := *row
		cp.ID = s.nextID
		s.data[flowRowKey(row.TraceID, row.TxSignature, row.Address, row.Hop)] = &cp
	}

	return nil
}

// GetByTraceID retrieves all rows for a trace, ordered by hop then timestamp.
func (s *FlowRowStore) GetByTraceID(_ context.Context, traceID string) ([]*domain.FlowRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FlowRow
	for _, row := range s.data {
		if row.TraceID == traceID {
			cp := *row
			result = append(result, &cp)
		}
	}
	sortFlowRows(result)
	return result, nil
}

// GetByAddress retrieves every row that landed on an address, across traces.
func (s *FlowRowStore) GetByAddress(_ context.Context, address string) ([]*domain.FlowRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FlowRow
	for _, row := range s.data {
		if row.Address == address {
			cp := *row
			result = append(result, &cp)
		}
	}
	sortFlowRows(result)
	return result, nil
}

func sortFlowRows(rows []*domain.FlowRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Hop != rows[j].Hop {
			return rows[i].Hop < rows[j].Hop
		}
		if rows[i].Timestamp != rows[j].Timestamp {
			return rows[i].Timestamp < rows[j].Timestamp
		}
		return rows[i].ID < rows[j].ID
	})
}
