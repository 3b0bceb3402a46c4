package reporting

import (
	"time"

	"github.com/shopspring/decimal"
)

// Report is the investigator-facing summary of one completed trace.
type Report struct {
	// Metadata
	GeneratedAt   time.Time
	TraceID       string
	SourceAddress string
	AssetSymbol   string
	MaxHops       int

	// Reconciliation
	Summary SummarySection

	// Flow rows grouped by hop, each group sorted by taint DESC
	Hops []HopSection

	// Terminal endpoints the victim can act on
	Endpoints []EndpointRow

	// Frontier addresses the data source failed on
	Unreachable []string
}

// SummarySection mirrors the trace reconciliation.
type SummarySection struct {
	TotalStolen    decimal.Decimal
	TracedAmount   decimal.Decimal
	ExchangeAmount decimal.Decimal
	SwapAmount     decimal.Decimal
	BridgeAmount   decimal.Decimal
	UntracedAmount decimal.Decimal
}

// HopSection groups flow rows at one BFS depth.
type HopSection struct {
	Hop  int
	Rows []FlowRowView
}

// FlowRowView is one flow-graph row prepared for rendering.
type FlowRowView struct {
	Address        string
	Amount         decimal.Decimal
	TaintAmount    decimal.Decimal
	TaintPercent   decimal.Decimal
	TxSignature    string
	Timestamp      int64
	EntityName     string
	EntityCategory string
	Heuristic      bool
}

// EndpointRow is one actionable terminal destination.
type EndpointRow struct {
	Address        string
	EntityName     string
	EntityCategory string
	TaintAmount    decimal.Decimal
	Hop            int
}
