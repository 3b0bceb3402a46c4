package trace

import (
	"context"

	"github.com/shopspring/decimal"

	"solana-fund-tracer/internal/domain"
)

// detectAsset decides whether the theft is a native or token trace by
// comparing outgoing volumes. Token thefts dominate the victim's outgoing
// token volume, so a token total more than 1000x the native total selects
// the first mint (by timestamp) with nonzero outgoing volume; anything
// less stays a native trace.
func (t *Tracer) detectAsset(ctx context.Context, sourceAddress string) (domain.AssetKind, error) {
	transfers, err := t.source.FetchTransfers(ctx, sourceAddress, nil, t.fetchLimit)
	if err != nil {
		return domain.AssetKind{}, err
	}

	transfers = outgoingFrom(sourceAddress, transfers)
	sortByTimestamp(transfers)

	nativeTotal := decimal.Zero
	tokenTotal := decimal.Zero
	firstMint := ""

	for _, tr := range transfers {
		switch tr.Asset.Class {
		case domain.AssetNative:
			nativeTotal = nativeTotal.Add(tr.Amount)
		case domain.AssetToken:
			tokenTotal = tokenTotal.Add(tr.Amount)
			if firstMint == "" && tr.Amount.Sign() > 0 {
				firstMint = tr.Asset.Mint
			}
		}
	}

	if firstMint != "" && tokenTotal.GreaterThan(nativeTotal.Mul(autoDetectMultiplier)) {
		t.logf("auto-detect: token trace, mint %s (token volume %s vs native %s)",
			firstMint, tokenTotal, nativeTotal)
		return domain.TokenAsset(firstMint), nil
	}

	t.logf("auto-detect: native trace (native volume %s, token volume %s)",
		nativeTotal, tokenTotal)
	return domain.NativeAsset(), nil
}
