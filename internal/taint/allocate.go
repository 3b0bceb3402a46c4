// Package taint implements FIFO attribution of a stolen balance across a
// wallet's outgoing transfers. The earliest money out is the first money
// traced, matching how an exchange dispute would attribute the theft.
package taint

import (
	"github.com/shopspring/decimal"

	"solana-fund-tracer/internal/domain"
)

// Allocation pairs one outgoing transfer with the taint assigned to it.
type Allocation struct {
	Transfer     domain.TransferEvent
	TaintAmount  decimal.Decimal
	TaintPercent decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Allocate walks transfers in the given order (callers sort by timestamp
// ascending) and consumes the budget first-in-first-out: each transfer takes
// min(remaining, amount) until the budget is exhausted. Transfers that
// receive no taint are not emitted. A non-positive budget yields nil.
func Allocate(transfers []domain.TransferEvent, budget decimal.Decimal) []Allocation {
	if budget.Sign() <= 0 {
		return nil
	}

	remaining := budget
	var allocations []Allocation

	for _, tr := range transfers {
		if tr.Amount.Sign() <= 0 {
			// Zero-value transfers carry no taint.
			continue
		}

		taintForThis := decimal.Min(remaining, tr.Amount)
		allocations = append(allocations, Allocation{
			Transfer:     tr,
			TaintAmount:  taintForThis,
			TaintPercent: Percent(taintForThis, tr.Amount),
		})

		remaining = remaining.Sub(taintForThis)
		if remaining.Sign() <= 0 {
			break
		}
	}

	return allocations
}

// Percent returns part/whole*100, defined as 0 for a zero whole.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.Sign() == 0 {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
