// Package watch provides live monitoring of flagged addresses after a trace.
// When a watched wallet appears in a new transaction, the monitor fetches the
// transaction and emits an alert describing the movement.
package watch

import (
	"context"
	"log"
	"time"

	"solana-fund-tracer/internal/domain"
	"solana-fund-tracer/internal/observability"
	"solana-fund-tracer/internal/solana"
	"solana-fund-tracer/internal/txsource"
)

// Alert describes movement on a watched address.
type Alert struct {
	Address     string
	TxSignature string
	Slot        int64
	Transfers   []domain.TransferEvent
	ReceivedAt  time.Time
}

// Monitor subscribes to logs mentioning flagged addresses and resolves each
// notification into transfer movements via the RPC client.
type Monitor struct {
	ws        solana.WSClient
	rpc       solana.RPCClient
	addresses []string
	logger    *log.Logger
	metrics   *observability.Metrics
}

// MonitorOptions contains configuration for creating a Monitor.
type MonitorOptions struct {
	WS        solana.WSClient
	RPC       solana.RPCClient
	Addresses []string
	Logger    *log.Logger
	Metrics   *observability.Metrics
}

// NewMonitor creates a monitor for the given addresses.
func NewMonitor(opts MonitorOptions) *Monitor {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.DefaultMetrics
	}
	return &Monitor{
		ws:        opts.WS,
		rpc:       opts.RPC,
		addresses: opts.Addresses,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run subscribes to all watched addresses and emits alerts until the context
// is cancelled. The returned channel is closed on shutdown.
func (m *Monitor) Run(ctx context.Context) (<-chan *Alert, error) {
	// One subscription per address (the logsSubscribe API takes a single
	// mentioned address per subscription)
	type sub struct {
		address string
		ch      <-chan solana.LogNotification
	}
	subs := make([]sub, 0, len(m.addresses))
	for _, addr := range m.addresses {
		ch, err := m.ws.SubscribeLogs(ctx, solana.LogsFilter{Mention: addr})
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub{address: addr, ch: ch})
		m.logger.Printf("[watch] subscribed to %s", addr)
	}
	m.metrics.WatchedAddresses.Set(float64(len(subs)))

	alerts := make(chan *Alert, 64)

	// Merge per-address channels, tagging each notification with its address
	type tagged struct {
		address string
		notif   solana.LogNotification
	}
	merged := make(chan tagged, 256)
	for _, s := range subs {
		go func(s sub) {
			for notif := range s.ch {
				select {
				case merged <- tagged{address: s.address, notif: notif}:
				case <-ctx.Done():
					return
				}
			}
		}(s)
	}

	go func() {
		defer close(alerts)
		defer m.metrics.WatchedAddresses.Set(0)
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-merged:
				m.metrics.WatchHits.Inc()
				alert := m.resolve(ctx, t.address, t.notif)
				if alert == nil {
					continue
				}
				select {
				case alerts <- alert:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return alerts, nil
}

// resolve fetches the notifying transaction and extracts movements touching
// the watched address. Returns nil when the transaction failed or carries no
// transfers for the address.
func (m *Monitor) resolve(ctx context.Context, address string, notif solana.LogNotification) *Alert {
	if notif.Err != nil {
		return nil
	}

	tx, err := m.rpc.GetTransaction(ctx, notif.Signature)
	if err != nil {
		m.logger.Printf("[watch] fetch tx %s failed: %v", notif.Signature, err)
		return nil
	}
	if tx == nil || tx.Meta == nil || tx.Meta.Err != nil {
		return nil
	}

	transfers := txsource.ExtractTransfers(tx, address, tx.BlockTime, false)
	if len(transfers) == 0 {
		return nil
	}

	m.logger.Printf("[watch] movement on %s: tx=%s transfers=%d", address, notif.Signature, len(transfers))
	return &Alert{
		Address:     address,
		TxSignature: notif.Signature,
		Slot:        notif.Slot,
		Transfers:   transfers,
		ReceivedAt:  time.Now().UTC(),
	}
}
