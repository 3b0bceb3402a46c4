package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-fund-tracer/internal/domain"
	"solana-fund-tracer/internal/storage"
)

// FlowRowStore implements storage.FlowRowStore using PostgreSQL.
type FlowRowStore struct {
	pool *Pool
}

// NewFlowRowStore creates a new FlowRowStore.
func NewFlowRowStore(pool *Pool) *FlowRowStore {
	return &FlowRowStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FlowRowStore = (*FlowRowStore)(nil)

const flowRowColumns = `
	id, trace_id, address, amount, taint_amount, taint_percent,
	tx_signature, timestamp, hop, entity_name, entity_category, heuristic, created_at
`

// InsertBulk adds all rows of one trace atomically.
// Fails the entire batch on any duplicate.
func (s *FlowRowStore) InsertBulk(ctx context.Context, flowRows []*domain.FlowRow) error {
	if len(flowRows) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO flow_rows (
			trace_id, address, amount, taint_amount, taint_percent,
			tx_signature, timestamp, hop, entity_name, entity_category, heuristic
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, row := range flowRows {
		_, err := tx.Exec(ctx, query,
			row.TraceID,
			row.Address,
			row.Amount,
			row.TaintAmount,
			row.TaintPercent,
			row.TxSignature,
			row.Timestamp,
			row.Hop,
			row.EntityName,
			row.EntityCategory,
			row.Heuristic,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert flow row: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByTraceID retrieves all rows for a trace, ordered by hop ASC then
// timestamp ASC.
func (s *FlowRowStore) GetByTraceID(ctx context.Context, traceID string) ([]*domain.FlowRow, error) {
	query := `
		SELECT ` + flowRowColumns + `
		FROM flow_rows
		WHERE trace_id = $1
		ORDER BY hop ASC, timestamp ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, traceID)
	if err != nil {
		return nil, fmt.Errorf("get flow rows by trace id: %w", err)
	}
	defer rows.Close()

	return scanFlowRows(rows)
}

// GetByAddress retrieves every row that landed on an address, across traces.
func (s *FlowRowStore) GetByAddress(ctx context.Context, address string) ([]*domain.FlowRow, error) {
	query := `
		SELECT ` + flowRowColumns + `
		FROM flow_rows
		WHERE address = $1
		ORDER BY hop ASC, timestamp ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("get flow rows by address: %w", err)
	}
	defer rows.Close()

	return scanFlowRows(rows)
}

func scanFlowRows(rows pgx.Rows) ([]*domain.FlowRow, error) {
	var result []*domain.FlowRow
	for rows.Next() {
		var r domain.FlowRow
		err := rows.Scan(
			&r.ID,
			&r.TraceID,
			&r.Address,
			&r.Amount,
			&r.TaintAmount,
			&r.TaintPercent,
			&r.TxSignature,
			&r.Timestamp,
			&r.Hop,
			&r.EntityName,
			&r.EntityCategory,
			&r.Heuristic,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan flow row: %w", err)
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flow rows: %w", err)
	}
	return result, nil
}
