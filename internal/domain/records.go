package domain

import "github.com/shopspring/decimal"

// EntityRecord is a persisted registry entry.
// Corresponds to the entities table in PostgreSQL.
type EntityRecord struct {
	Address   string // PRIMARY KEY
	Name      string
	Category  EntityCategory
	CreatedAt int64 // record creation timestamp (seconds)
}

// EndpointStat aggregates taint that landed on one endpoint address across
// many traces. Computed from the ClickHouse flow-row archive.
type EndpointStat struct {
	Address        string
	EntityName     string
	EntityCategory string
	TraceCount     int64
	TotalTaint     decimal.Decimal
}
