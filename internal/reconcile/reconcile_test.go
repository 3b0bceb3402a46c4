package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"

	"solana-fund-tracer/internal/domain"
)

func row(hop int, taint int64, category domain.EntityCategory) *domain.TaintedOutput {
	out := &domain.TaintedOutput{
		Address:     "addr",
		Amount:      decimal.NewFromInt(taint),
		TaintAmount: decimal.NewFromInt(taint),
		Hop:         hop,
	}
	if category != "" {
		out.Entity = &domain.EntityRef{Name: "entity", Category: category}
	}
	return out
}

func TestSummarize(t *testing.T) {
	graph := []*domain.TaintedOutput{
		row(1, 100, ""),
		row(2, 60, domain.CategoryExchange),
		row(2, 15, domain.CategorySwapVenue),
		row(3, 10, domain.CategoryBridge),
	}

	s := Summarize(graph)

	if !s.TracedAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("TracedAmount = %s, want 100 (hop-1 rows only)", s.TracedAmount)
	}
	if !s.ExchangeAmount.Equal(decimal.NewFromInt(60)) {
		t.Errorf("ExchangeAmount = %s, want 60", s.ExchangeAmount)
	}
	if !s.SwapAmount.Equal(decimal.NewFromInt(15)) {
		t.Errorf("SwapAmount = %s, want 15", s.SwapAmount)
	}
	if !s.BridgeAmount.Equal(decimal.NewFromInt(10)) {
		t.Errorf("BridgeAmount = %s, want 10", s.BridgeAmount)
	}
	if !s.UntracedAmount.Equal(decimal.NewFromInt(15)) {
		t.Errorf("UntracedAmount = %s, want 15", s.UntracedAmount)
	}
}

func TestSummarizeUntracedNeverNegative(t *testing.T) {
	// Exchange rows at deep hops can exceed the hop-1 total when the same
	// taint reaches several terminal rows. The remainder clamps at zero.
	graph := []*domain.TaintedOutput{
		row(1, 50, domain.CategoryExchange),
		row(2, 40, domain.CategoryExchange),
		row(3, 30, domain.CategoryBridge),
	}

	s := Summarize(graph)
	if s.UntracedAmount.Sign() < 0 {
		t.Fatalf("UntracedAmount = %s, must never be negative", s.UntracedAmount)
	}
	if !s.UntracedAmount.IsZero() {
		t.Errorf("UntracedAmount = %s, want 0", s.UntracedAmount)
	}
}

func TestSummarizeEmptyGraph(t *testing.T) {
	s := Summarize(nil)
	if !s.TracedAmount.IsZero() || !s.UntracedAmount.IsZero() {
		t.Errorf("empty graph summary not zero: %+v", s)
	}
}

func TestEndpoints(t *testing.T) {
	graph := []*domain.TaintedOutput{
		row(1, 100, ""),
		row(2, 60, domain.CategoryExchange),
		row(2, 15, domain.CategorySwapVenue),
		row(3, 10, domain.CategoryBridge),
	}

	endpoints := Endpoints(graph)
	if len(endpoints) != 2 {
		t.Fatalf("got %d endpoints, want 2 (exchange and bridge)", len(endpoints))
	}
	for _, ep := range endpoints {
		if !ep.Entity.Category.IsTerminal() {
			t.Errorf("non-terminal category %s in endpoints", ep.Entity.Category)
		}
	}
}
