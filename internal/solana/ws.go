package solana

import "context"

// WSClient defines the Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeLogs subscribes to transaction logs mentioning an address.
	SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan LogNotification, error)

	// Close closes the WebSocket connection and all subscriptions.
	Close() error
}

// LogsFilter selects which logs a subscription receives.
type LogsFilter struct {
	// Mention filters logs to transactions that mention this address.
	// The logsSubscribe API takes one mentioned address per subscription.
	Mention string
}

// LogNotification is one logs subscription message.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       interface{}
}
