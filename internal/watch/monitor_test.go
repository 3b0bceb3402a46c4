package watch

import (
	"context"
	"testing"
	"time"

	"solana-fund-tracer/internal/solana"
)

const watchedAddr = "Mule11111111111111111111111111111111111111"

type stubWS struct {
	ch chan solana.LogNotification
}

func (s *stubWS) SubscribeLogs(_ context.Context, _ solana.LogsFilter) (<-chan solana.LogNotification, error) {
	return s.ch, nil
}

func (s *stubWS) Close() error { return nil }

type stubRPC struct {
	txs map[string]*solana.Transaction
}

func (s *stubRPC) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	return s.txs[signature], nil
}

func (s *stubRPC) GetSignaturesForAddress(_ context.Context, _ string, _ *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	return nil, nil
}

func (s *stubRPC) GetBlockTime(_ context.Context, _ int64) (*int64, error) {
	return nil, nil
}

func outflowTx(sig string) *solana.Transaction {
	return &solana.Transaction{
		Slot:      500,
		Signature: sig,
		BlockTime: 1700000000,
		Meta: &solana.TransactionMeta{
			PreBalances:  []uint64{5_000_000_000, 1_000_000_000},
			PostBalances: []uint64{1_000_000_000, 5_000_000_000},
		},
		Message: &solana.TransactionMessage{
			AccountKeys: []string{watchedAddr, "Dest11111111111111111111111111111111111111"},
		},
	}
}

func TestMonitorEmitsAlert(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ws := &stubWS{ch: make(chan solana.LogNotification, 1)}
	rpc := &stubRPC{txs: map[string]*solana.Transaction{
		"sig-move": outflowTx("sig-move"),
	}}

	mon := NewMonitor(MonitorOptions{
		WS:        ws,
		RPC:       rpc,
		Addresses: []string{watchedAddr},
	})

	alerts, err := mon.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ws.ch <- solana.LogNotification{Signature: "sig-move", Slot: 500}

	select {
	case alert := <-alerts:
		if alert.Address != watchedAddr {
			t.Errorf("alert address = %s", alert.Address)
		}
		if alert.TxSignature != "sig-move" {
			t.Errorf("alert signature = %s", alert.TxSignature)
		}
		if len(alert.Transfers) != 1 {
			t.Fatalf("got %d transfers, want 1", len(alert.Transfers))
		}
		if alert.Transfers[0].To != "Dest11111111111111111111111111111111111111" {
			t.Errorf("transfer destination = %s", alert.Transfers[0].To)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for alert")
	}
}

func TestMonitorSkipsFailedTx(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	failed := outflowTx("sig-failed")
	failed.Meta.Err = map[string]interface{}{"InstructionError": []interface{}{}}

	ws := &stubWS{ch: make(chan solana.LogNotification, 2)}
	rpc := &stubRPC{txs: map[string]*solana.Transaction{
		"sig-failed": failed,
		"sig-ok":     outflowTx("sig-ok"),
	}}

	mon := NewMonitor(MonitorOptions{
		WS:        ws,
		RPC:       rpc,
		Addresses: []string{watchedAddr},
	})

	alerts, err := mon.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ws.ch <- solana.LogNotification{Signature: "sig-failed", Slot: 499}
	ws.ch <- solana.LogNotification{Signature: "sig-ok", Slot: 500}

	select {
	case alert := <-alerts:
		if alert.TxSignature != "sig-ok" {
			t.Errorf("expected failed tx to be skipped, got alert for %s", alert.TxSignature)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for alert")
	}
}
