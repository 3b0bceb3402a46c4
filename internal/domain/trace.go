package domain

import "github.com/shopspring/decimal"

// TaintedOutput is one row of the flow graph: a single outgoing transfer
// with the stolen-fund fraction attributed to it. Rows are created once by
// the engine and never mutated afterwards.
type TaintedOutput struct {
	Address      string          // destination wallet
	Amount       decimal.Decimal // full transfer amount
	TaintAmount  decimal.Decimal // portion attributed to the theft, 0 <= taint <= amount
	TaintPercent decimal.Decimal // taintAmount/amount*100, 0 when amount is 0
	TxSignature  string
	Timestamp    int64 // Unix seconds
	Hop          int   // BFS depth, 1 = direct from victim
	Entity       *EntityRef
	Asset        AssetKind
}

// FrontierItem is a pending BFS expansion: an address still holding
// residual taint that has not been visited yet.
type FrontierItem struct {
	Address       string
	ResidualTaint decimal.Decimal
	Hop           int
	Asset         AssetKind
}

// TraceSummary reconciles where the traced amount ended up.
type TraceSummary struct {
	ExchangeAmount decimal.Decimal // taint sitting at identified exchanges, any hop
	SwapAmount     decimal.Decimal // taint lost to swap venues, any hop
	BridgeAmount   decimal.Decimal // taint that crossed bridges, any hop
	TracedAmount   decimal.Decimal // taint over hop-1 rows: what left the victim
	UntracedAmount decimal.Decimal // max(0, traced - exchange - swap - bridge)
}

// TraceResult is the complete output of one trace invocation.
type TraceResult struct {
	SourceAddress   string
	TotalStolen     decimal.Decimal
	TracedAmount    decimal.Decimal
	RecoveredAmount decimal.Decimal // alias of summary.ExchangeAmount
	FlowGraph       []*TaintedOutput
	Endpoints       []*TaintedOutput // terminal EXCHANGE/BRIDGE rows
	Unreachable     []string         // frontier addresses the source failed on
	Summary         TraceSummary
	Asset           AssetKind
	AssetSymbol     string
	StartedAt       int64 // Unix seconds
	FinishedAt      int64 // Unix seconds
}

// TraceRecord is the persisted header of a completed trace.
// Corresponds to the traces table in PostgreSQL.
type TraceRecord struct {
	TraceID        string // deterministic hash of (source, asset, started_at)
	SourceAddress  string
	AssetClass     AssetClass
	Mint           string // empty for native traces
	TotalStolen    decimal.Decimal
	TracedAmount   decimal.Decimal
	ExchangeAmount decimal.Decimal
	SwapAmount     decimal.Decimal
	BridgeAmount   decimal.Decimal
	UntracedAmount decimal.Decimal
	MaxHops        int
	RowCount       int
	StartedAt      int64
	FinishedAt     int64
	CreatedAt      int64 // record creation timestamp (seconds)
}

// FlowRow is the persisted form of a TaintedOutput.
// Corresponds to flow_rows in PostgreSQL and ClickHouse.
type FlowRow struct {
	ID             int64 // BIGSERIAL primary key (postgres only)
	TraceID        string
	Address        string
	Amount         decimal.Decimal
	TaintAmount    decimal.Decimal
	TaintPercent   decimal.Decimal
	TxSignature    string
	Timestamp      int64
	Hop            int
	EntityName     string // empty when unclassified
	EntityCategory string // empty when unclassified
	Heuristic      bool
	CreatedAt      int64
}
