package txsource

import (
	"sort"

	"github.com/shopspring/decimal"

	"solana-fund-tracer/internal/domain"
	"solana-fund-tracer/internal/solana"
)

const solDecimals = 9 // 1 SOL = 1e9 lamports

// ExtractTransfers reconstructs transfers touching addr from balance deltas.
// When addr lost value in the transaction, every account that gained value
// in the same asset is treated as a recipient of addr's outflow. This
// over-approximates multi-party transactions but never misses an outflow,
// which is the right failure mode for forensic tracing.
func ExtractTransfers(tx *solana.Transaction, addr string, timestamp int64, swapHint bool) []domain.TransferEvent {
	var events []domain.TransferEvent
	events = append(events, nativeTransfers(tx, addr, timestamp, swapHint)...)
	events = append(events, tokenTransfers(tx, addr, timestamp, swapHint)...)

	// Map iteration order leaks into token events; fix it for reproducible
	// reports.
	sort.Slice(events, func(i, j int) bool {
		if events[i].Asset.Mint != events[j].Asset.Mint {
			return events[i].Asset.Mint < events[j].Asset.Mint
		}
		if events[i].From != events[j].From {
			return events[i].From < events[j].From
		}
		return events[i].To < events[j].To
	})
	return events
}

// nativeTransfers derives SOL movements from pre/post lamport balances.
func nativeTransfers(tx *solana.Transaction, addr string, timestamp int64, swapHint bool) []domain.TransferEvent {
	if tx.Message == nil || len(tx.Meta.PreBalances) != len(tx.Message.AccountKeys) ||
		len(tx.Meta.PostBalances) != len(tx.Message.AccountKeys) {
		return nil
	}

	addrIndex := -1
	for i, key := range tx.Message.AccountKeys {
		if key == addr {
			addrIndex = i
			break
		}
	}
	if addrIndex < 0 {
		return nil
	}

	addrDelta := int64(tx.Meta.PostBalances[addrIndex]) - int64(tx.Meta.PreBalances[addrIndex])

	var events []domain.TransferEvent
	if addrDelta < 0 {
		// addr paid out; credit every gaining account as a recipient.
		for i, key := range tx.Message.AccountKeys {
			if i == addrIndex {
				continue
			}
			gain := int64(tx.Meta.PostBalances[i]) - int64(tx.Meta.PreBalances[i])
			if gain <= 0 {
				continue
			}
			events = append(events, domain.TransferEvent{
				From:        addr,
				To:          key,
				Amount:      decimal.New(gain, -solDecimals),
				Asset:       domain.NativeAsset(),
				TxSignature: tx.Signature,
				Slot:        tx.Slot,
				Timestamp:   timestamp,
				IsSwapHint:  swapHint,
			})
		}
	} else if addrDelta > 0 {
		// addr received; debit the largest losing account as the sender.
		sender, loss := "", int64(0)
		for i, key := range tx.Message.AccountKeys {
			if i == addrIndex {
				continue
			}
			delta := int64(tx.Meta.PostBalances[i]) - int64(tx.Meta.PreBalances[i])
			if delta < loss {
				sender, loss = key, delta
			}
		}
		if sender != "" {
			events = append(events, domain.TransferEvent{
				From:        sender,
				To:          addr,
				Amount:      decimal.New(addrDelta, -solDecimals),
				Asset:       domain.NativeAsset(),
				TxSignature: tx.Signature,
				Slot:        tx.Slot,
				Timestamp:   timestamp,
				IsSwapHint:  swapHint,
			})
		}
	}

	return events
}

// tokenTransfers derives SPL token movements from pre/post token balances,
// grouped per (owner, mint).
func tokenTransfers(tx *solana.Transaction, addr string, timestamp int64, swapHint bool) []domain.TransferEvent {
	type holding struct {
		owner string
		mint  string
	}

	deltas := make(map[holding]decimal.Decimal)
	decimalsOf := make(map[string]int)

	for _, b := range tx.Meta.PreTokenBalances {
		amount, err := decimal.NewFromString(b.Amount)
		if err != nil {
			continue
		}
		k := holding{owner: b.Owner, mint: b.Mint}
		deltas[k] = deltas[k].Sub(amount)
		decimalsOf[b.Mint] = b.Decimals
	}
	for _, b := range tx.Meta.PostTokenBalances {
		amount, err := decimal.NewFromString(b.Amount)
		if err != nil {
			continue
		}
		k := holding{owner: b.Owner, mint: b.Mint}
		deltas[k] = deltas[k].Add(amount)
		decimalsOf[b.Mint] = b.Decimals
	}

	var events []domain.TransferEvent
	for k, delta := range deltas {
		if k.owner != addr || delta.Sign() >= 0 {
			continue
		}
		// addr lost tokens of this mint; credit each gaining owner.
		for other, otherDelta := range deltas {
			if other.mint != k.mint || other.owner == addr || otherDelta.Sign() <= 0 {
				continue
			}
			events = append(events, domain.TransferEvent{
				From:        addr,
				To:          other.owner,
				Amount:      otherDelta.Shift(int32(-decimalsOf[k.mint])),
				Asset:       domain.TokenAsset(k.mint),
				TxSignature: tx.Signature,
				Slot:        tx.Slot,
				Timestamp:   timestamp,
				IsSwapHint:  swapHint,
			})
		}
	}

	// Inbound token movements: addr gained, attribute to each losing owner.
	for k, delta := range deltas {
		if k.owner != addr || delta.Sign() <= 0 {
			continue
		}
		for other, otherDelta := range deltas {
			if other.mint != k.mint || other.owner == addr || otherDelta.Sign() >= 0 {
				continue
			}
			events = append(events, domain.TransferEvent{
				From:        other.owner,
				To:          addr,
				Amount:      delta.Shift(int32(-decimalsOf[k.mint])),
				Asset:       domain.TokenAsset(k.mint),
				TxSignature: tx.Signature,
				Slot:        tx.Slot,
				Timestamp:   timestamp,
				IsSwapHint:  swapHint,
			})
		}
	}

	return events
}
