// Package trace implements breadth-first taint propagation across on-chain
// transfers, rooted at a victim address.
package trace

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"solana-fund-tracer/internal/address"
	"solana-fund-tracer/internal/domain"
	"solana-fund-tracer/internal/entity"
	"solana-fund-tracer/internal/reconcile"
	"solana-fund-tracer/internal/taint"
)

// Default engine parameters.
const (
	DefaultMaxHops       = 3
	DefaultRowCap        = 200
	DefaultFetchLimit    = 50
	DefaultCourtesyDelay = 200 * time.Millisecond

	// MaxHopsLimit bounds the configurable hop depth.
	MaxHopsLimit = 10
)

// continuationThreshold is the minimum taint percentage that justifies
// expanding a branch further.
var continuationThreshold = decimal.NewFromInt(10)

// noiseFloor drops expansion allocations below 1% of their own transfer.
var noiseFloor = decimal.NewFromInt(1)

// autoDetectMultiplier: token volume must exceed native volume by this
// factor before auto-detect treats the theft as a token trace.
var autoDetectMultiplier = decimal.NewFromInt(1000)

// Options configures a Tracer.
type Options struct {
	Source   TransferSource
	Registry *entity.Registry

	MaxHops       int           // default DefaultMaxHops, validated 1..10
	RowCap        int           // hard cap on flow-graph rows, default 200
	FetchLimit    int           // signatures fetched per address
	CourtesyDelay time.Duration // pause between source calls; 0 in tests

	Logger  *log.Logger
	Verbose bool
}

// Tracer runs taint traces. A single Tracer may serve concurrent traces:
// all per-run state (visited set, frontier, flow graph) is scoped to the
// Trace call.
type Tracer struct {
	source        TransferSource
	registry      *entity.Registry
	maxHops       int
	rowCap        int
	fetchLimit    int
	courtesyDelay time.Duration
	logger        *log.Logger
	verbose       bool
	now           func() time.Time
}

// New creates a Tracer.
func New(opts Options) (*Tracer, error) {
	if opts.Source == nil {
		return nil, ErrNoSource
	}

	registry := opts.Registry
	if registry == nil {
		registry = entity.NewRegistry()
	}

	maxHops := opts.MaxHops
	if maxHops == 0 {
		maxHops = DefaultMaxHops
	}
	if maxHops < 1 || maxHops > MaxHopsLimit {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHops, maxHops)
	}

	rowCap := opts.RowCap
	if rowCap <= 0 {
		rowCap = DefaultRowCap
	}

	fetchLimit := opts.FetchLimit
	if fetchLimit <= 0 {
		fetchLimit = DefaultFetchLimit
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Tracer{
		source:        opts.Source,
		registry:      registry,
		maxHops:       maxHops,
		rowCap:        rowCap,
		fetchLimit:    fetchLimit,
		courtesyDelay: opts.CourtesyDelay,
		logger:        logger,
		verbose:       opts.Verbose,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock sets a custom clock function for deterministic output.
func (t *Tracer) WithClock(now func() time.Time) *Tracer {
	t.now = now
	return t
}

// Request describes one trace invocation.
type Request struct {
	// SourceAddress is the victim wallet the stolen funds left from.
	SourceAddress string

	// StolenAmount is the known stolen total. Zero means "everything that
	// left the wallet": the budget becomes the sum of hop-1 transfers.
	StolenAmount decimal.Decimal

	// Asset selects what to trace. Nil auto-detects from outgoing volume.
	Asset *domain.AssetKind

	// MaxHops overrides the tracer default when non-zero.
	MaxHops int
}

// run is the per-invocation state arena. Each Trace call owns a fresh one.
type run struct {
	asset       domain.AssetKind
	maxHops     int
	visited     map[string]struct{}
	frontier    []domain.FrontierItem
	flowGraph   []*domain.TaintedOutput
	unreachable []string
}

// Trace propagates taint from the source address and reconciles the result.
func (t *Tracer) Trace(ctx context.Context, req Request) (*domain.TraceResult, error) {
	if err := address.Validate(req.SourceAddress); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	maxHops := req.MaxHops
	if maxHops == 0 {
		maxHops = t.maxHops
	}
	if maxHops < 1 || maxHops > MaxHopsLimit {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHops, maxHops)
	}

	startedAt := t.now()

	r := &run{
		maxHops: maxHops,
		visited: map[string]struct{}{req.SourceAddress: {}},
	}

	// INIT: settle the asset kind.
	if req.Asset != nil {
		r.asset = *req.Asset
	} else {
		detected, err := t.detectAsset(ctx, req.SourceAddress)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRootUnavailable, err)
		}
		r.asset = detected
	}

	// FIRST_HOP: allocate the stolen budget over the victim's own transfers.
	totalStolen, err := t.firstHop(ctx, req, r)
	if err != nil {
		return nil, err
	}

	// EXPANDING: breadth-first over the frontier until it drains, the row
	// cap hits, or the deadline expires.
	t.expand(ctx, r)

	// DONE: reconcile.
	summary := reconcile.Summarize(r.flowGraph)
	finishedAt := t.now()

	return &domain.TraceResult{
		SourceAddress:   req.SourceAddress,
		TotalStolen:     totalStolen,
		TracedAmount:    summary.TracedAmount,
		RecoveredAmount: summary.ExchangeAmount,
		FlowGraph:       r.flowGraph,
		Endpoints:       reconcile.Endpoints(r.flowGraph),
		Unreachable:     r.unreachable,
		Summary:         summary,
		Asset:           r.asset,
		AssetSymbol:     r.asset.Symbol(),
		StartedAt:       startedAt.Unix(),
		FinishedAt:      finishedAt.Unix(),
	}, nil
}

// firstHop fetches the victim's outgoing transfers and seeds the flow graph
// at hop 1. Returns the taint budget actually used.
func (t *Tracer) firstHop(ctx context.Context, req Request, r *run) (decimal.Decimal, error) {
	transfers, err := t.source.FetchTransfers(ctx, req.SourceAddress, &r.asset, t.fetchLimit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrRootUnavailable, err)
	}

	transfers = outgoingFrom(req.SourceAddress, transfers)
	sortByTimestamp(transfers)

	budget := req.StolenAmount
	if budget.Sign() <= 0 {
		budget = decimal.Zero
		for _, tr := range transfers {
			budget = budget.Add(tr.Amount)
		}
	}

	allocations := taint.Allocate(transfers, budget)
	t.logf("hop 1: %d outgoing transfers, %d tainted, budget %s %s",
		len(transfers), len(allocations), budget, r.asset.Symbol())

	for _, alloc := range allocations {
		t.record(r, alloc, 1)
	}

	return budget, nil
}

// expand drains the frontier queue breadth-first. A FIFO queue, not a
// stack: shallow hops are fully explored before deeper ones, so reports
// list closer endpoints first.
func (t *Tracer) expand(ctx context.Context, r *run) {
	for len(r.frontier) > 0 {
		if len(r.flowGraph) >= t.rowCap {
			t.logf("row cap %d reached, stopping expansion", t.rowCap)
			return
		}
		if ctx.Err() != nil {
			t.logf("deadline expired, stopping expansion")
			return
		}

		item := r.frontier[0]
		r.frontier = r.frontier[1:]

		if _, seen := r.visited[item.Address]; seen {
			continue
		}
		if item.Hop >= r.maxHops {
			continue
		}
		r.visited[item.Address] = struct{}{}

		if !t.pause(ctx) {
			return
		}

		transfers, err := t.source.FetchTransfers(ctx, item.Address, &item.Asset, t.fetchLimit)
		if err != nil {
			// A dead branch does not kill the trace.
			t.logger.Printf("expand %s (hop %d): %v", item.Address, item.Hop, err)
			r.unreachable = append(r.unreachable, item.Address)
			continue
		}

		transfers = outgoingFrom(item.Address, transfers)
		sortByTimestamp(transfers)

		for _, alloc := range taint.Allocate(transfers, item.ResidualTaint) {
			if alloc.TaintPercent.LessThan(noiseFloor) {
				continue
			}
			if len(r.flowGraph) >= t.rowCap {
				return
			}
			t.record(r, alloc, item.Hop+1)
		}
	}
}

// record appends one flow-graph row, classifies it, and enqueues a frontier
// item when the branch stays worth following.
func (t *Tracer) record(r *run, alloc taint.Allocation, hop int) {
	tr := alloc.Transfer

	row := &domain.TaintedOutput{
		Address:      tr.To,
		Amount:       tr.Amount,
		TaintAmount:  alloc.TaintAmount,
		TaintPercent: alloc.TaintPercent,
		TxSignature:  tr.TxSignature,
		Timestamp:    tr.Timestamp,
		Hop:          hop,
		Asset:        tr.Asset,
	}

	if ref, ok := t.registry.Classify(tr.To); ok {
		row.Entity = &ref
	} else if tr.IsSwapHint {
		synthetic := entity.SyntheticSwap()
		row.Entity = &synthetic
	}

	r.flowGraph = append(r.flowGraph, row)

	if row.Entity != nil && row.Entity.Category.IsTerminal() {
		// Funds left the on-chain graph; nothing downstream to expand.
		return
	}

	if alloc.TaintPercent.GreaterThan(continuationThreshold) && hop < r.maxHops {
		r.frontier = append(r.frontier, domain.FrontierItem{
			Address:       tr.To,
			ResidualTaint: alloc.TaintAmount,
			Hop:           hop,
			Asset:         tr.Asset,
		})
	}
}

// pause sleeps the courtesy delay between source calls. Returns false when
// the context expired while waiting.
func (t *Tracer) pause(ctx context.Context) bool {
	if t.courtesyDelay <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(t.courtesyDelay):
		return true
	}
}

func (t *Tracer) logf(format string, args ...any) {
	if t.verbose {
		t.logger.Printf(format, args...)
	}
}
