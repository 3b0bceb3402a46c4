package reporting

import (
	"context"
	"sort"
	"time"

	"solana-fund-tracer/internal/domain"
	"solana-fund-tracer/internal/storage"
)

// Generator produces reports from stored traces.
type Generator struct {
	traceStore   storage.TraceStore
	flowRowStore storage.FlowRowStore
	now          func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(traceStore storage.TraceStore, flowRowStore storage.FlowRowStore) *Generator {
	return &Generator{
		traceStore:   traceStore,
		flowRowStore: flowRowStore,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report for one persisted trace.
func (g *Generator) Generate(ctx context.Context, traceID string) (*Report, error) {
	trace, err := g.traceStore.GetByID(ctx, traceID)
	if err != nil {
		return nil, err
	}

	rows, err := g.flowRowStore.GetByTraceID(ctx, traceID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		GeneratedAt:   g.now(),
		TraceID:       trace.TraceID,
		SourceAddress: trace.SourceAddress,
		AssetSymbol:   assetSymbol(trace),
		MaxHops:       trace.MaxHops,
		Summary: SummarySection{
			TotalStolen:    trace.TotalStolen,
			TracedAmount:   trace.TracedAmount,
			ExchangeAmount: trace.ExchangeAmount,
			SwapAmount:     trace.SwapAmount,
			BridgeAmount:   trace.BridgeAmount,
			UntracedAmount: trace.UntracedAmount,
		},
		Hops:      groupByHop(rows),
		Endpoints: endpointRows(rows),
	}
	return report, nil
}

// FromResult builds a report directly from an in-memory trace result,
// without touching storage. Used by the CLI when no database is configured.
func FromResult(traceID string, result *domain.TraceResult, maxHops int, now time.Time) *Report {
	rows := domain.BuildFlowRows(traceID, result)

	return &Report{
		GeneratedAt:   now,
		TraceID:       traceID,
		SourceAddress: result.SourceAddress,
		AssetSymbol:   result.AssetSymbol,
		MaxHops:       maxHops,
		Summary: SummarySection{
			TotalStolen:    result.TotalStolen,
			TracedAmount:   result.Summary.TracedAmount,
			ExchangeAmount: result.Summary.ExchangeAmount,
			SwapAmount:     result.Summary.SwapAmount,
			BridgeAmount:   result.Summary.BridgeAmount,
			UntracedAmount: result.Summary.UntracedAmount,
		},
		Hops:        groupByHop(rows),
		Endpoints:   endpointRows(rows),
		Unreachable: result.Unreachable,
	}
}

// groupByHop splits rows into hop sections, each sorted by taint DESC so the
// biggest flows read first.
func groupByHop(rows []*domain.FlowRow) []HopSection {
	byHop := make(map[int][]FlowRowView)
	for _, r := range rows {
		byHop[r.Hop] = append(byHop[r.Hop], FlowRowView{
			Address:        r.Address,
			Amount:         r.Amount,
			TaintAmount:    r.TaintAmount,
			TaintPercent:   r.TaintPercent,
			TxSignature:    r.TxSignature,
			Timestamp:      r.Timestamp,
			EntityName:     r.EntityName,
			EntityCategory: r.EntityCategory,
			Heuristic:      r.Heuristic,
		})
	}

	hops := make([]int, 0, len(byHop))
	for hop := range byHop {
		hops = append(hops, hop)
	}
	sort.Ints(hops)

	sections := make([]HopSection, 0, len(hops))
	for _, hop := range hops {
		views := byHop[hop]
		sort.Slice(views, func(i, j int) bool {
			if !views[i].TaintAmount.Equal(views[j].TaintAmount) {
				return views[i].TaintAmount.GreaterThan(views[j].TaintAmount)
			}
			return views[i].Address < views[j].Address
		})
		sections = append(sections, HopSection{Hop: hop, Rows: views})
	}
	return sections
}

// endpointRows extracts terminal destinations, aggregated per address.
func endpointRows(rows []*domain.FlowRow) []EndpointRow {
	byAddr := make(map[string]*EndpointRow)
	for _, r := range rows {
		cat := domain.EntityCategory(r.EntityCategory)
		if !cat.IsTerminal() {
			continue
		}
		ep, ok := byAddr[r.Address]
		if !ok {
			ep = &EndpointRow{
				Address:        r.Address,
				EntityName:     r.EntityName,
				EntityCategory: r.EntityCategory,
				Hop:            r.Hop,
			}
			byAddr[r.Address] = ep
		}
		ep.TaintAmount = ep.TaintAmount.Add(r.TaintAmount)
		if r.Hop < ep.Hop {
			ep.Hop = r.Hop
		}
	}

	endpoints := make([]EndpointRow, 0, len(byAddr))
	for _, ep := range byAddr {
		endpoints = append(endpoints, *ep)
	}
	sort.Slice(endpoints, func(i, j int) bool {
		if !endpoints[i].TaintAmount.Equal(endpoints[j].TaintAmount) {
			return endpoints[i].TaintAmount.GreaterThan(endpoints[j].TaintAmount)
		}
		return endpoints[i].Address < endpoints[j].Address
	})
	return endpoints
}

func assetSymbol(t *domain.TraceRecord) string {
	if t.AssetClass == domain.AssetToken {
		return "SPL token " + t.Mint
	}
	return "SOL"
}
