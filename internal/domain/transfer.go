package domain

import "github.com/shopspring/decimal"

// TransferEvent is one on-chain value movement observed by the transaction
// source. Amounts are decimals in UI units (SOL or token units, not lamports).
type TransferEvent struct {
	From        string          // source wallet address
	To          string          // destination wallet address
	Amount      decimal.Decimal // transferred amount, always >= 0
	Asset       AssetKind       // NATIVE or TOKEN(mint)
	TxSignature string          // Solana transaction signature
	Slot        int64           // Solana slot number
	Timestamp   int64           // Unix timestamp in seconds
	IsSwapHint  bool            // transaction looked like a DEX swap
}

// TransferMeta carries transaction-level metadata used by the swap heuristic.
type TransferMeta struct {
	TxSignature string
	AccountKeys []string // all accounts referenced by the transaction
	LogMessages []string // program log output
}
