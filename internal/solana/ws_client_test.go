package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// subscribeServer upgrades, confirms the first logsSubscribe with subID, then
// sends the given notifications.
func subscribeServer(t *testing.T, subID int64, notifications []LogNotification) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer c.Close()

		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}

		var req rpcRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}
		if req.Method != "logsSubscribe" {
			t.Errorf("expected logsSubscribe, got %s", req.Method)
		}

		if err := c.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  subID,
		}); err != nil {
			return
		}

		for _, n := range notifications {
			notif := map[string]interface{}{
				"jsonrpc": "2.0",
				"method":  "logsNotification",
				"params": map[string]interface{}{
					"subscription": subID,
					"result": map[string]interface{}{
						"context": map[string]interface{}{"slot": n.Slot},
						"value": map[string]interface{}{
							"signature": n.Signature,
							"logs":      n.Logs,
							"err":       n.Err,
						},
					},
				},
			}
			if err := c.WriteJSON(notif); err != nil {
				return
			}
		}

		// Keep connection open
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWSClient_SubscribeLogs(t *testing.T) {
	server := subscribeServer(t, 7, []LogNotification{
		{Signature: "testsig", Slot: 100, Logs: []string{"Program log: Instruction: Transfer"}},
	})
	defer server.Close()

	client, err := NewWSClient(context.Background(), wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch, err := client.SubscribeLogs(ctx, LogsFilter{Mention: "watchedaddr"})
	if err != nil {
		t.Fatalf("SubscribeLogs: %v", err)
	}

	select {
	case notif := <-ch:
		if notif.Signature != "testsig" {
			t.Errorf("signature = %s", notif.Signature)
		}
		if notif.Slot != 100 {
			t.Errorf("slot = %d", notif.Slot)
		}
		if len(notif.Logs) != 1 {
			t.Errorf("logs = %v", notif.Logs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func TestWSClient_Close(t *testing.T) {
	server := subscribeServer(t, 9, nil)
	defer server.Close()

	client, err := NewWSClient(context.Background(), wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch, err := client.SubscribeLogs(ctx, LogsFilter{Mention: "addr"})
	if err != nil {
		t.Fatalf("SubscribeLogs: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Subscription channel closes on shutdown.
	select {
	case _, open := <-ch:
		if open {
			t.Error("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after Close")
	}

	// Double close is a no-op.
	if err := client.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestWSClient_SubscribeAfterClose(t *testing.T) {
	server := subscribeServer(t, 11, nil)
	defer server.Close()

	client, err := NewWSClient(context.Background(), wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	client.Close()

	if _, err := client.SubscribeLogs(context.Background(), LogsFilter{Mention: "addr"}); err == nil {
		t.Fatal("expected error subscribing on closed client")
	}
}

func TestWSClient_DialFailure(t *testing.T) {
	if _, err := NewWSClient(context.Background(), "ws://127.0.0.1:1", nil); err == nil {
		t.Fatal("expected dial error")
	}
}
