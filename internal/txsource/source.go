// Package txsource derives transfer events for an address from Solana RPC.
package txsource

import (
	"context"
	"fmt"
	"log"

	"solana-fund-tracer/internal/domain"
	"solana-fund-tracer/internal/solana"
)

// SwapDetector decides whether transaction metadata looks like a DEX swap.
type SwapDetector interface {
	LooksLikeSwap(meta domain.TransferMeta) bool
}

// RPCTransferSource builds transfer events from confirmed transactions.
// It pages through getSignaturesForAddress and reconstructs value movement
// from pre/post balance deltas, which works for any transfer mechanism
// (system transfers, token program, CPI) without instruction parsing.
type RPCTransferSource struct {
	rpc      solana.RPCClient
	detector SwapDetector
	logger   *log.Logger
}

// NewRPCTransferSource creates a transfer source over an RPC client.
func NewRPCTransferSource(rpc solana.RPCClient, detector SwapDetector, logger *log.Logger) *RPCTransferSource {
	if logger == nil {
		logger = log.Default()
	}
	return &RPCTransferSource{rpc: rpc, detector: detector, logger: logger}
}

// FetchTransfers returns transfer events involving the address, limited to
// the given asset when filter is non-nil.
func (s *RPCTransferSource) FetchTransfers(ctx context.Context, addr string, filter *domain.AssetKind, limit int) ([]domain.TransferEvent, error) {
	sigs, err := s.rpc.GetSignaturesForAddress(ctx, addr, &solana.SignaturesOpts{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("get signatures for %s: %w", addr, err)
	}

	var events []domain.TransferEvent
	for _, sig := range sigs {
		if sig.Err != nil {
			continue
		}

		tx, err := s.rpc.GetTransaction(ctx, sig.Signature)
		if err != nil {
			return nil, fmt.Errorf("get transaction %s: %w", sig.Signature, err)
		}
		if tx == nil || tx.Meta == nil || tx.Meta.Err != nil {
			continue
		}

		timestamp := tx.BlockTime
		if timestamp == 0 {
			bt, err := s.rpc.GetBlockTime(ctx, tx.Slot)
			if err != nil || bt == nil {
				s.logger.Printf("no block time for %s (slot %d), skipping", sig.Signature, tx.Slot)
				continue
			}
			timestamp = *bt
		}

		swapHint := false
		if s.detector != nil {
			meta := domain.TransferMeta{
				TxSignature: tx.Signature,
				LogMessages: tx.Meta.LogMessages,
			}
			if tx.Message != nil {
				meta.AccountKeys = tx.Message.AccountKeys
			}
			swapHint = s.detector.LooksLikeSwap(meta)
		}

		for _, ev := range ExtractTransfers(tx, addr, timestamp, swapHint) {
			if matchesFilter(ev, filter) {
				events = append(events, ev)
			}
		}
	}

	return events, nil
}

func matchesFilter(ev domain.TransferEvent, filter *domain.AssetKind) bool {
	if filter == nil {
		return true
	}
	if filter.Class == domain.AssetNative {
		return ev.Asset.Class == domain.AssetNative
	}
	return ev.Asset.Class == domain.AssetToken && ev.Asset.Mint == filter.Mint
}
