package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-fund-tracer/internal/domain"
	"solana-fund-tracer/internal/storage"
)

// TraceStore implements storage.TraceStore using PostgreSQL.
type TraceStore struct {
	pool *Pool
}

// NewTraceStore creates a new TraceStore.
func NewTraceStore(pool *Pool) *TraceStore {
	return &TraceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TraceStore = (*TraceStore)(nil)

const traceColumns = `
	trace_id, source_address, asset_class, mint, total_stolen, traced_amount,
	exchange_amount, swap_amount, bridge_amount, untraced_amount,
	max_hops, row_count, started_at, finished_at, created_at
`

// Insert adds a new trace. Returns ErrDuplicateKey if trace_id exists.
func (s *TraceStore) Insert(ctx context.Context, t *domain.TraceRecord) error {
	query := `
		INSERT INTO traces (
			trace_id, source_address, asset_class, mint, total_stolen, traced_amount,
			exchange_amount, swap_amount, bridge_amount, untraced_amount,
			max_hops, row_count, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := s.pool.Exec(ctx, query,
		t.TraceID,
		t.SourceAddress,
		string(t.AssetClass),
		t.Mint,
		t.TotalStolen,
		t.TracedAmount,
		t.ExchangeAmount,
		t.SwapAmount,
		t.BridgeAmount,
		t.UntracedAmount,
		t.MaxHops,
		t.RowCount,
		t.StartedAt,
		t.FinishedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trace: %w", err)
	}
	return nil
}

// GetByID retrieves a trace by its ID. Returns ErrNotFound if not exists.
func (s *TraceStore) GetByID(ctx context.Context, traceID string) (*domain.TraceRecord, error) {
	query := `SELECT ` + traceColumns + ` FROM traces WHERE trace_id = $1`

	row := s.pool.QueryRow(ctx, query, traceID)
	t, err := scanTrace(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trace by id: %w", err)
	}
	return t, nil
}

// GetBySourceAddress retrieves all traces for a victim address,
// ordered by started_at DESC.
func (s *TraceStore) GetBySourceAddress(ctx context.Context, address string) ([]*domain.TraceRecord, error) {
	query := `
		SELECT ` + traceColumns + `
		FROM traces
		WHERE source_address = $1
		ORDER BY started_at DESC, trace_id ASC
	`

	rows, err := s.pool.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("get traces by source address: %w", err)
	}
	defer rows.Close()

	return scanTraces(rows)
}

// GetRecent retrieves the most recent traces, ordered by started_at DESC.
func (s *TraceStore) GetRecent(ctx context.Context, limit int) ([]*domain.TraceRecord, error) {
	query := `
		SELECT ` + traceColumns + `
		FROM traces
		ORDER BY started_at DESC, trace_id ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent traces: %w", err)
	}
	defer rows.Close()

	return scanTraces(rows)
}

func scanTrace(row pgx.Row) (*domain.TraceRecord, error) {
	var t domain.TraceRecord
	var assetClass string
	err := row.Scan(
		&t.TraceID,
		&t.SourceAddress,
		&assetClass,
		&t.Mint,
		&t.TotalStolen,
		&t.TracedAmount,
		&t.ExchangeAmount,
		&t.SwapAmount,
		&t.BridgeAmount,
		&t.UntracedAmount,
		&t.MaxHops,
		&t.RowCount,
		&t.StartedAt,
		&t.FinishedAt,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.AssetClass = domain.AssetClass(assetClass)
	return &t, nil
}

func scanTraces(rows pgx.Rows) ([]*domain.TraceRecord, error) {
	var result []*domain.TraceRecord
	for rows.Next() {
		t, err := scanTrace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traces: %w", err)
	}
	return result, nil
}
