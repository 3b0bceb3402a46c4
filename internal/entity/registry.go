// Package entity maps on-chain addresses to known counterparties: exchange
// hot wallets, swap venues, bridges and privacy services.
package entity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"solana-fund-tracer/internal/domain"
)

// Known DEX program IDs used by the swap heuristic.
const (
	// RaydiumAMMV4 is the Raydium AMM v4 program ID.
	RaydiumAMMV4 = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	// PumpFun is the pump.fun program ID.
	PumpFun = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	// JupiterV6 is the Jupiter aggregator v6 program ID.
	JupiterV6 = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
	// OrcaWhirlpool is the Orca Whirlpool program ID.
	OrcaWhirlpool = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
)

// swapLogMarkers are log-message substrings that indicate a DEX swap even
// when the program is not in the swap-program table.
var swapLogMarkers = []string{
	"Instruction: Swap",
	"Instruction: SwapV2",
	"ray_log",
}

// Registry resolves addresses against a static table of known entities.
type Registry struct {
	mu           sync.RWMutex
	entities     map[string]domain.EntityRef
	swapPrograms map[string]string // program ID -> venue name
}

// NewRegistry creates a registry preloaded with the default entity table.
func NewRegistry() *Registry {
	r := &Registry{
		entities:     make(map[string]domain.EntityRef),
		swapPrograms: make(map[string]string),
	}

	for addr, ref := range defaultEntities {
		r.entities[addr] = ref
	}
	r.swapPrograms[RaydiumAMMV4] = "Raydium AMM v4"
	r.swapPrograms[PumpFun] = "pump.fun"
	r.swapPrograms[JupiterV6] = "Jupiter v6"
	r.swapPrograms[OrcaWhirlpool] = "Orca Whirlpool"

	return r
}

// RecordSource yields persisted registry entries, typically an
// storage.EntityStore.
type RecordSource interface {
	GetAll(ctx context.Context) ([]*domain.EntityRecord, error)
}

// LoadFrom merges persisted entries into the registry. Persisted entries
// win over the built-in table for the same address.
func (r *Registry) LoadFrom(ctx context.Context, src RecordSource) error {
	records, err := src.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load entities: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		r.entities[rec.Address] = domain.EntityRef{
			Name:     rec.Name,
			Category: rec.Category,
		}
	}
	return nil
}

// Register adds or replaces an entity entry.
func (r *Registry) Register(address string, ref domain.EntityRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[address] = ref
}

// RegisterSwapProgram adds a program ID to the swap-program table.
func (r *Registry) RegisterSwapProgram(programID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.swapPrograms[programID] = name
}

// Classify returns the registered entity for an address, or false on a miss.
func (r *Registry) Classify(address string) (domain.EntityRef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.entities[address]
	return ref, ok
}

// LooksLikeSwap reports whether transaction metadata suggests a DEX swap:
// either a registered swap program appears among the account keys, or the
// program logs carry a known swap marker.
func (r *Registry) LooksLikeSwap(meta domain.TransferMeta) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, key := range meta.AccountKeys {
		if _, ok := r.swapPrograms[key]; ok {
			return true
		}
	}
	for _, logLine := range meta.LogMessages {
		for _, marker := range swapLogMarkers {
			if strings.Contains(logLine, marker) {
				return true
			}
		}
	}
	return false
}

// SyntheticSwap returns the entity used for outputs that hit the swap
// heuristic without an exact registry match. Kept distinct from registry
// hits so callers can tell a confirmed label from an inference.
func SyntheticSwap() domain.EntityRef {
	return domain.EntityRef{
		Name:      "DEX Swap",
		Category:  domain.CategorySwapVenue,
		Heuristic: true,
	}
}
