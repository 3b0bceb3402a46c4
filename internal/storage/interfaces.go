package storage

import (
	"context"

	"solana-fund-tracer/internal/domain"
)

// TraceStore provides access to persisted trace headers.
type TraceStore interface {
	// Insert adds a new trace. Returns ErrDuplicateKey if trace_id exists.
	Insert(ctx context.Context, t *domain.TraceRecord) error

	// GetByID retrieves a trace by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, traceID string) (*domain.TraceRecord, error)

	// GetBySourceAddress retrieves all traces for a victim address,
	// ordered by started_at DESC.
	GetBySourceAddress(ctx context.Context, address string) ([]*domain.TraceRecord, error)

	// GetRecent retrieves the most recent traces, ordered by started_at DESC.
	GetRecent(ctx context.Context, limit int) ([]*domain.TraceRecord, error)
}

// FlowRowStore provides access to persisted flow-graph rows.
type FlowRowStore interface {
	// InsertBulk adds all rows of one trace atomically.
	InsertBulk(ctx context.Context, rows []*domain.FlowRow) error

	// GetByTraceID retrieves all rows for a trace, ordered by hop ASC then
	// timestamp ASC.
	GetByTraceID(ctx context.Context, traceID string) ([]*domain.FlowRow, error)

	// GetByAddress retrieves every row that landed on an address, across
	// traces. Used to answer "has this wallet received taint before".
	GetByAddress(ctx context.Context, address string) ([]*domain.FlowRow, error)
}

// EntityStore provides access to persisted registry entries that extend the
// built-in entity table.
type EntityStore interface {
	// Insert adds an entity. Returns ErrDuplicateKey if the address exists.
	Insert(ctx context.Context, e *domain.EntityRecord) error

	// GetByAddress retrieves an entity. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.EntityRecord, error)

	// GetAll retrieves all entities, ordered by address.
	GetAll(ctx context.Context) ([]*domain.EntityRecord, error)
}
