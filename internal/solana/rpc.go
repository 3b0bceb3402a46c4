// Package solana provides thin JSON-RPC and WebSocket clients for the
// subset of the Solana node API the tracer needs.
package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface.
type RPCClient interface {
	// GetTransaction retrieves a confirmed transaction by signature.
	// Returns nil when the transaction is unknown to the node.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSignaturesForAddress retrieves signatures for an address with
	// pagination, newest first.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetBlockTime retrieves the estimated production time of a slot.
	GetBlockTime(ctx context.Context, slot int64) (*int64, error)
}

// Transaction is a confirmed transaction with the metadata needed to derive
// balance movements.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix seconds
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta carries execution metadata. Pre/post balances are indexed
// by account position in Message.AccountKeys; native balances in lamports.
type TransactionMeta struct {
	Err               interface{}
	Fee               uint64
	LogMessages       []string
	PreBalances       []uint64
	PostBalances      []uint64
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
}

// TokenBalance is an SPL token account balance snapshot.
type TokenBalance struct {
	AccountIndex int
	Mint         string
	Owner        string
	Amount       string // raw integer amount as string
	Decimals     int
}

// TransactionMessage is the parsed transaction message.
type TransactionMessage struct {
	AccountKeys []string
}

// SignatureInfo is one entry from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts defines optional pagination parameters.
type SignaturesOpts struct {
	Before string // start searching backwards from this signature
	Until  string // search until this signature
	Limit  int    // maximum number of signatures to return
}
