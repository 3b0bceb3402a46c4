package trace

import (
	"context"
	"sort"

	"solana-fund-tracer/internal/domain"
)

// TransferSource provides the outgoing transfers of an address.
type TransferSource interface {
	// FetchTransfers returns transfer events involving the address, limited
	// to the given asset when filter is non-nil. Events may be unordered;
	// the engine enforces deterministic ordering. An empty result is valid
	// (a wallet with no relevant outgoing transfers), not an error.
	FetchTransfers(ctx context.Context, address string, filter *domain.AssetKind, limit int) ([]domain.TransferEvent, error)
}

// outgoingFrom keeps only transfers that actually leave the address.
// Self-transfers are excluded: they move no taint.
func outgoingFrom(address string, transfers []domain.TransferEvent) []domain.TransferEvent {
	var out []domain.TransferEvent
	for _, tr := range transfers {
		if tr.From != address || tr.To == address || tr.To == "" {
			continue
		}
		out = append(out, tr)
	}
	return out
}

// sortByTimestamp orders transfers ascending by timestamp, breaking ties by
// slot and signature for deterministic FIFO allocation.
func sortByTimestamp(transfers []domain.TransferEvent) {
	sort.Slice(transfers, func(i, j int) bool {
		if transfers[i].Timestamp != transfers[j].Timestamp {
			return transfers[i].Timestamp < transfers[j].Timestamp
		}
		if transfers[i].Slot != transfers[j].Slot {
			return transfers[i].Slot < transfers[j].Slot
		}
		return transfers[i].TxSignature < transfers[j].TxSignature
	})
}
