package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	PingInterval time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultWSConfig returns the default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		PingInterval: 30 * time.Second,
		ReadTimeout:  90 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// WSClientImpl implements WSClient using gorilla/websocket.
type WSClientImpl struct {
	config WSClientConfig

	conn   *websocket.Conn
	connMu sync.Mutex // serializes writes
	closed atomic.Bool

	requestID atomic.Uint64

	// subs maps subscription ID to delivery channel.
	subs   map[int64]chan LogNotification
	subsMu sync.Mutex

	// pending maps request ID to channel waiting for a subscription ID.
	pending   map[uint64]chan int64
	pendingMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWSClient connects to a Solana WebSocket endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}

	c := &WSClientImpl{
		config:  cfg,
		conn:    conn,
		subs:    make(map[int64]chan LogNotification),
		pending: make(map[uint64]chan int64),
		done:    make(chan struct{}),
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

var _ WSClient = (*WSClientImpl)(nil)

// SubscribeLogs subscribes to logs mentioning the filter address.
func (c *WSClientImpl) SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan LogNotification, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("client closed")
	}

	reqID := c.requestID.Add(1)
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "logsSubscribe",
		Params: []interface{}{
			map[string]interface{}{"mentions": []string{filter.Mention}},
			map[string]interface{}{"commitment": "confirmed"},
		},
	}

	subIDCh := make(chan int64, 1)
	c.pendingMu.Lock()
	c.pending[reqID] = subIDCh
	c.pendingMu.Unlock()

	if err := c.writeJSON(req); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, reqID)
		c.pendingMu.Unlock()
		return nil, fmt.Errorf("send subscribe: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, fmt.Errorf("client closed")
	case subID := <-subIDCh:
		ch := make(chan LogNotification, 64)
		c.subsMu.Lock()
		c.subs[subID] = ch
		c.subsMu.Unlock()
		return ch, nil
	}
}

// Close shuts down the connection and closes all subscription channels.
func (c *WSClientImpl) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)
	err := c.conn.Close()
	c.wg.Wait()

	c.subsMu.Lock()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.subsMu.Unlock()

	return err
}

func (c *WSClientImpl) writeJSON(v interface{}) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return c.conn.WriteJSON(v)
}

// wsMessage covers both subscription confirmations and notifications.
type wsMessage struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Method string          `json:"method"`
	Params *wsNotifyParams `json:"params"`
	Error  *rpcError       `json:"error"`
}

type wsNotifyParams struct {
	Subscription int64 `json:"subscription"`
	Result       struct {
		Context struct {
			Slot int64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Signature string      `json:"signature"`
			Logs      []string    `json:"logs"`
			Err       interface{} `json:"err"`
		} `json:"value"`
	} `json:"result"`
}

func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()

	for {
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				// Connection dropped; subscribers see closed channels.
				c.conn.Close()
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch {
		case msg.ID != 0 && msg.Result != nil:
			// Subscription confirmation carrying the subscription ID.
			var subID int64
			if err := json.Unmarshal(msg.Result, &subID); err != nil {
				continue
			}
			c.pendingMu.Lock()
			if ch, ok := c.pending[msg.ID]; ok {
				ch <- subID
				delete(c.pending, msg.ID)
			}
			c.pendingMu.Unlock()

		case msg.Method == "logsNotification" && msg.Params != nil:
			notification := LogNotification{
				Signature: msg.Params.Result.Value.Signature,
				Slot:      msg.Params.Result.Context.Slot,
				Logs:      msg.Params.Result.Value.Logs,
				Err:       msg.Params.Result.Value.Err,
			}
			c.subsMu.Lock()
			ch, ok := c.subs[msg.Params.Subscription]
			c.subsMu.Unlock()
			if ok {
				select {
				case ch <- notification:
				default:
					// Slow consumer; drop rather than block the reader.
				}
			}
		}
	}
}

func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.connMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
