package clickhouse

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"solana-fund-tracer/internal/domain"
	"solana-fund-tracer/internal/storage"
)

// FlowRowStore implements storage.FlowRowStore on ClickHouse. It backs the
// long-term flow-row archive used for cross-trace endpoint analytics; the
// MergeTree engine does not enforce uniqueness, so duplicates are rejected
// with explicit checks before insert.
type FlowRowStore struct {
	conn *Conn
}

// NewFlowRowStore creates a new FlowRowStore.
func NewFlowRowStore(conn *Conn) *FlowRowStore {
	return &FlowRowStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FlowRowStore = (*FlowRowStore)(nil)

// InsertBulk adds all rows of one trace. Fails the entire batch on a
// duplicate (trace_id, tx_signature, address, hop).
func (s *FlowRowStore) InsertBulk(ctx context.Context, rows []*domain.FlowRow) error {
	if len(rows) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		traceID     string
		txSignature string
		address     string
		hop         int
	}
	seen := make(map[key]struct{})
	for _, r := range rows {
		k := key{r.TraceID, r.TxSignature, r.Address, r.Hop}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing rows. All rows of a batch share
	// one trace_id, so one count query covers them.
	existing, err := s.countByTraceID(ctx, rows[0].TraceID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if existing > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO flow_rows (
			trace_id, address, amount, taint_amount, taint_percent,
			tx_signature, timestamp, hop, entity_name, entity_category, heuristic
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		heuristic := uint8(0)
		if r.Heuristic {
			heuristic = 1
		}
		err = batch.Append(
			r.TraceID, r.Address, r.Amount, r.TaintAmount, r.TaintPercent,
			r.TxSignature, uint64(r.Timestamp), uint8(r.Hop),
			r.EntityName, r.EntityCategory, heuristic,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTraceID retrieves all rows for a trace, ordered by hop then timestamp.
func (s *FlowRowStore) GetByTraceID(ctx context.Context, traceID string) ([]*domain.FlowRow, error) {
	query := `
		SELECT trace_id, address, amount, taint_amount, taint_percent,
		       tx_signature, timestamp, hop, entity_name, entity_category, heuristic
		FROM flow_rows
		WHERE trace_id = ?
		ORDER BY hop ASC, timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, traceID)
	if err != nil {
		return nil, fmt.Errorf("query by trace id: %w", err)
	}
	defer rows.Close()

	return scanFlowRows(rows)
}

// GetByAddress retrieves every row that landed on an address, across traces.
func (s *FlowRowStore) GetByAddress(ctx context.Context, address string) ([]*domain.FlowRow, error) {
	query := `
		SELECT trace_id, address, amount, taint_amount, taint_percent,
		       tx_signature, timestamp, hop, entity_name, entity_category, heuristic
		FROM flow_rows
		WHERE address = ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("query by address: %w", err)
	}
	defer rows.Close()

	return scanFlowRows(rows)
}

// TopEndpoints aggregates taint received by terminal entities across all
// archived traces, ordered by total taint DESC.
func (s *FlowRowStore) TopEndpoints(ctx context.Context, limit int) ([]*domain.EndpointStat, error) {
	query := `
		SELECT address, any(entity_name), any(entity_category),
		       uniqExact(trace_id), sum(taint_amount)
		FROM flow_rows
		WHERE entity_category != ''
		GROUP BY address
		ORDER BY sum(taint_amount) DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("query top endpoints: %w", err)
	}
	defer rows.Close()

	var stats []*domain.EndpointStat
	for rows.Next() {
		var st domain.EndpointStat
		var traceCount uint64
		var totalTaint decimal.Decimal
		err := rows.Scan(
			&st.Address, &st.EntityName, &st.EntityCategory,
			&traceCount, &totalTaint,
		)
		if err != nil {
			return nil, fmt.Errorf("scan endpoint stat: %w", err)
		}
		st.TraceCount = int64(traceCount)
		st.TotalTaint = totalTaint
		stats = append(stats, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate endpoint stats: %w", err)
	}
	return stats, nil
}

// countByTraceID counts archived rows for one trace.
func (s *FlowRowStore) countByTraceID(ctx context.Context, traceID string) (uint64, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM flow_rows WHERE trace_id = ?`, traceID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanFlowRows scans multiple rows into a slice.
func scanFlowRows(rows chRows) ([]*domain.FlowRow, error) {
	var out []*domain.FlowRow

	for rows.Next() {
		var r domain.FlowRow
		var timestamp uint64
		var hop, heuristic uint8
		err := rows.Scan(
			&r.TraceID, &r.Address, &r.Amount, &r.TaintAmount, &r.TaintPercent,
			&r.TxSignature, &timestamp, &hop,
			&r.EntityName, &r.EntityCategory, &heuristic,
		)
		if err != nil {
			return nil, fmt.Errorf("scan flow row: %w", err)
		}
		r.Timestamp = int64(timestamp)
		r.Hop = int(hop)
		r.Heuristic = heuristic == 1
		out = append(out, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flow rows: %w", err)
	}

	return out, nil
}
