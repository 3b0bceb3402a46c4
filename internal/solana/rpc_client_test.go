package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPClient_GetTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.Method != "getTransaction" {
			t.Errorf("expected method getTransaction, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"slot":      int64(123456),
				"blockTime": int64(1700000000),
				"meta": map[string]interface{}{
					"err":          nil,
					"fee":          int64(5000),
					"logMessages":  []string{"Program log: Instruction: Transfer"},
					"preBalances":  []int64{2000000000, 0},
					"postBalances": []int64{999995000, 1000000000},
					"preTokenBalances": []map[string]interface{}{
						{
							"accountIndex": 1,
							"mint":         "mint1",
							"owner":        "owner1",
							"uiTokenAmount": map[string]interface{}{
								"amount":   "1000000",
								"decimals": 6,
							},
						},
					},
				},
				"transaction": map[string]interface{}{
					"message": map[string]interface{}{
						"accountKeys": []string{"addr1", "addr2"},
					},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	tx, err := client.GetTransaction(ctx, "testsig123")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}

	if tx == nil {
		t.Fatal("expected transaction, got nil")
	}

	if tx.Slot != 123456 {
		t.Errorf("expected slot 123456, got %d", tx.Slot)
	}

	if tx.BlockTime != 1700000000 {
		t.Errorf("expected blockTime 1700000000, got %d", tx.BlockTime)
	}

	if tx.Meta == nil {
		t.Fatal("expected meta, got nil")
	}

	if len(tx.Meta.PreBalances) != 2 || tx.Meta.PreBalances[0] != 2000000000 {
		t.Errorf("pre balances = %v", tx.Meta.PreBalances)
	}

	if len(tx.Meta.PreTokenBalances) != 1 {
		t.Fatalf("expected 1 pre token balance, got %d", len(tx.Meta.PreTokenBalances))
	}
	tb := tx.Meta.PreTokenBalances[0]
	if tb.Mint != "mint1" || tb.Owner != "owner1" || tb.Amount != "1000000" || tb.Decimals != 6 {
		t.Errorf("token balance = %+v", tb)
	}

	if tx.Message == nil || len(tx.Message.AccountKeys) != 2 {
		t.Errorf("message = %+v", tx.Message)
	}
}

func TestHTTPClient_GetTransaction_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  nil,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	tx, err := client.GetTransaction(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}

	if tx != nil {
		t.Errorf("expected nil for not found, got %+v", tx)
	}
}

func TestHTTPClient_GetSignaturesForAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "getSignaturesForAddress" {
			t.Errorf("expected method getSignaturesForAddress, got %s", req.Method)
		}

		blockTime := int64(1700000000)
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": []map[string]interface{}{
				{"signature": "sig1", "slot": int64(100), "blockTime": blockTime, "err": nil},
				{"signature": "sig2", "slot": int64(101), "blockTime": blockTime, "err": map[string]interface{}{"InstructionError": nil}},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	sigs, err := client.GetSignaturesForAddress(ctx, "testaddr", &SignaturesOpts{Limit: 10})
	if err != nil {
		t.Fatalf("GetSignaturesForAddress: %v", err)
	}

	if len(sigs) != 2 {
		t.Fatalf("expected 2 signatures, got %d", len(sigs))
	}

	if sigs[0].Signature != "sig1" || sigs[0].Err != nil {
		t.Errorf("sigs[0] = %+v", sigs[0])
	}

	if sigs[1].Slot != 101 || sigs[1].Err == nil {
		t.Errorf("sigs[1] = %+v", sigs[1])
	}
}

func TestHTTPClient_GetBlockTime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "getBlockTime" {
			t.Errorf("expected method getBlockTime, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  int64(1700000042),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	bt, err := client.GetBlockTime(context.Background(), 12345)
	if err != nil {
		t.Fatalf("GetBlockTime: %v", err)
	}
	if bt == nil || *bt != 1700000042 {
		t.Errorf("block time = %v", bt)
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  int64(1700000000),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)

	bt, err := client.GetBlockTime(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetBlockTime: %v", err)
	}

	if bt == nil || *bt != 1700000000 {
		t.Errorf("block time = %v", bt)
	}

	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32602,
				"message": "invalid params",
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)

	if _, err := client.GetTransaction(context.Background(), "badsig"); err == nil {
		t.Fatal("expected RPC error")
	}

	// RPC-level errors are not transient; no retries.
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts.Load())
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Second)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(0))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.GetBlockTime(ctx, 1); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}
