package txsource

import (
	"context"
	"errors"
	"testing"

	"solana-fund-tracer/internal/domain"
	"solana-fund-tracer/internal/solana"
)

type fakeRPC struct {
	sigs      []solana.SignatureInfo
	sigsErr   error
	txs       map[string]*solana.Transaction
	blockTime map[int64]int64
}

func (f *fakeRPC) GetSignaturesForAddress(_ context.Context, _ string, _ *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	return f.sigs, f.sigsErr
}

func (f *fakeRPC) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	return f.txs[signature], nil
}

func (f *fakeRPC) GetBlockTime(_ context.Context, slot int64) (*int64, error) {
	if bt, ok := f.blockTime[slot]; ok {
		return &bt, nil
	}
	return nil, errors.New("slot not found")
}

type alwaysSwap struct{}

func (alwaysSwap) LooksLikeSwap(_ domain.TransferMeta) bool { return true }

func simpleTx(sig string, slot, blockTime int64) *solana.Transaction {
	return &solana.Transaction{
		Slot:      slot,
		Signature: sig,
		BlockTime: blockTime,
		Meta: &solana.TransactionMeta{
			PreBalances:  []uint64{2_000_000_000, 0},
			PostBalances: []uint64{1_000_000_000, 1_000_000_000},
		},
		Message: &solana.TransactionMessage{AccountKeys: []string{wallet, other}},
	}
}

func TestFetchTransfers(t *testing.T) {
	rpc := &fakeRPC{
		sigs: []solana.SignatureInfo{
			{Signature: "sig-ok", Slot: 10},
			{Signature: "sig-failed", Slot: 11, Err: "InstructionError"},
		},
		txs: map[string]*solana.Transaction{
			"sig-ok":     simpleTx("sig-ok", 10, 1700000000),
			"sig-failed": simpleTx("sig-failed", 11, 1700000001),
		},
	}

	src := NewRPCTransferSource(rpc, nil, nil)
	events, err := src.FetchTransfers(context.Background(), wallet, nil, 50)
	if err != nil {
		t.Fatalf("FetchTransfers failed: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (failed signature skipped)", len(events))
	}
	if events[0].TxSignature != "sig-ok" {
		t.Errorf("event from %s", events[0].TxSignature)
	}
	if events[0].Timestamp != 1700000000 {
		t.Errorf("timestamp = %d", events[0].Timestamp)
	}
}

func TestFetchTransfersSkipsFailedExecution(t *testing.T) {
	reverted := simpleTx("sig-reverted", 10, 1700000000)
	reverted.Meta.Err = map[string]interface{}{"InstructionError": nil}

	rpc := &fakeRPC{
		sigs: []solana.SignatureInfo{{Signature: "sig-reverted", Slot: 10}},
		txs:  map[string]*solana.Transaction{"sig-reverted": reverted},
	}

	src := NewRPCTransferSource(rpc, nil, nil)
	events, err := src.FetchTransfers(context.Background(), wallet, nil, 50)
	if err != nil {
		t.Fatalf("FetchTransfers failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events from reverted tx, want 0", len(events))
	}
}

func TestFetchTransfersBlockTimeFallback(t *testing.T) {
	rpc := &fakeRPC{
		sigs: []solana.SignatureInfo{
			{Signature: "sig-no-bt", Slot: 42},
			{Signature: "sig-unknown-slot", Slot: 43},
		},
		txs: map[string]*solana.Transaction{
			"sig-no-bt":        simpleTx("sig-no-bt", 42, 0),
			"sig-unknown-slot": simpleTx("sig-unknown-slot", 43, 0),
		},
		blockTime: map[int64]int64{42: 1700000099},
	}

	src := NewRPCTransferSource(rpc, nil, nil)
	events, err := src.FetchTransfers(context.Background(), wallet, nil, 50)
	if err != nil {
		t.Fatalf("FetchTransfers failed: %v", err)
	}

	// Slot 42 resolves via getBlockTime; slot 43 has no known time and is
	// dropped rather than emitted with a zero timestamp.
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Timestamp != 1700000099 {
		t.Errorf("timestamp = %d, want fallback block time", events[0].Timestamp)
	}
}

func TestFetchTransfersSwapHint(t *testing.T) {
	rpc := &fakeRPC{
		sigs: []solana.SignatureInfo{{Signature: "sig-swap", Slot: 10}},
		txs:  map[string]*solana.Transaction{"sig-swap": simpleTx("sig-swap", 10, 1700000000)},
	}

	src := NewRPCTransferSource(rpc, alwaysSwap{}, nil)
	events, err := src.FetchTransfers(context.Background(), wallet, nil, 50)
	if err != nil {
		t.Fatalf("FetchTransfers failed: %v", err)
	}
	if len(events) != 1 || !events[0].IsSwapHint {
		t.Errorf("swap hint not set: %+v", events)
	}
}

func TestFetchTransfersAssetFilter(t *testing.T) {
	rpc := &fakeRPC{
		sigs: []solana.SignatureInfo{{Signature: "sig-ok", Slot: 10}},
		txs:  map[string]*solana.Transaction{"sig-ok": simpleTx("sig-ok", 10, 1700000000)},
	}

	src := NewRPCTransferSource(rpc, nil, nil)

	tokenFilter := domain.TokenAsset(mint)
	events, err := src.FetchTransfers(context.Background(), wallet, &tokenFilter, 50)
	if err != nil {
		t.Fatalf("FetchTransfers failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("native transfer passed token filter: %+v", events)
	}

	nativeFilter := domain.NativeAsset()
	events, err = src.FetchTransfers(context.Background(), wallet, &nativeFilter, 50)
	if err != nil {
		t.Fatalf("FetchTransfers failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events with native filter, want 1", len(events))
	}
}

func TestFetchTransfersSignatureError(t *testing.T) {
	rpc := &fakeRPC{sigsErr: errors.New("rpc unavailable")}
	src := NewRPCTransferSource(rpc, nil, nil)

	if _, err := src.FetchTransfers(context.Background(), wallet, nil, 50); err == nil {
		t.Fatal("expected error")
	}
}
