// Package reconcile aggregates a completed flow graph into the recovery
// summary of a trace.
package reconcile

import (
	"github.com/shopspring/decimal"

	"solana-fund-tracer/internal/domain"
)

// Summarize reduces the flow graph to category totals.
//
// Category sums run over every hop: taint sitting at an exchange reached at
// hop 3 is just as recoverable as at hop 1. The traced total, in contrast,
// sums hop-1 rows only: deeper hops re-describe the same taint dollars
// moving further, so counting them again would double-count against the
// stolen amount. The untraced remainder is clamped at zero rather than
// inferred from leaf hops, which is not well-defined for a branching graph.
func Summarize(flowGraph []*domain.TaintedOutput) domain.TraceSummary {
	summary := domain.TraceSummary{
		ExchangeAmount: decimal.Zero,
		SwapAmount:     decimal.Zero,
		BridgeAmount:   decimal.Zero,
		TracedAmount:   decimal.Zero,
		UntracedAmount: decimal.Zero,
	}

	for _, row := range flowGraph {
		if row.Hop == 1 {
			summary.TracedAmount = summary.TracedAmount.Add(row.TaintAmount)
		}
		if row.Entity == nil {
			continue
		}
		switch row.Entity.Category {
		case domain.CategoryExchange:
			summary.ExchangeAmount = summary.ExchangeAmount.Add(row.TaintAmount)
		case domain.CategorySwapVenue:
			summary.SwapAmount = summary.SwapAmount.Add(row.TaintAmount)
		case domain.CategoryBridge:
			summary.BridgeAmount = summary.BridgeAmount.Add(row.TaintAmount)
		}
	}

	untraced := summary.TracedAmount.
		Sub(summary.ExchangeAmount).
		Sub(summary.SwapAmount).
		Sub(summary.BridgeAmount)
	if untraced.Sign() > 0 {
		summary.UntracedAmount = untraced
	}

	return summary
}

// Endpoints filters the flow graph down to its terminal rows: outputs that
// landed on an exchange or bridge and stopped the trace.
func Endpoints(flowGraph []*domain.TaintedOutput) []*domain.TaintedOutput {
	var endpoints []*domain.TaintedOutput
	for _, row := range flowGraph {
		if row.Entity != nil && row.Entity.Category.IsTerminal() {
			endpoints = append(endpoints, row)
		}
	}
	return endpoints
}
