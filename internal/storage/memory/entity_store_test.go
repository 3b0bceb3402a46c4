package memory

import (
	"context"
	"errors"
	"testing"

	"solana-fund-tracer/internal/domain"
	"solana-fund-tracer/internal/storage"
)

func TestEntityStore_InsertAndGet(t *testing.T) {
	store := NewEntityStore()
	ctx := context.Background()

	e := &domain.EntityRecord{
		Address:   "addr1",
		Name:      "Binance Hot Wallet",
		Category:  domain.CategoryExchange,
		CreatedAt: 1700000000,
	}
	if err := store.Insert(ctx, e); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByAddress(ctx, "addr1")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if got.Name != "Binance Hot Wallet" || got.Category != domain.CategoryExchange {
		t.Errorf("got %+v", got)
	}

	// Stored copy is isolated from the caller's pointer.
	e.Name = "mutated"
	got, _ = store.GetByAddress(ctx, "addr1")
	if got.Name != "Binance Hot Wallet" {
		t.Error("store shares memory with caller")
	}
}

func TestEntityStore_DuplicateKey(t *testing.T) {
	store := NewEntityStore()
	ctx := context.Background()

	e := &domain.EntityRecord{Address: "addr1", Name: "A", Category: domain.CategoryBridge}
	if err := store.Insert(ctx, e); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, e); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestEntityStore_NotFound(t *testing.T) {
	store := NewEntityStore()
	if _, err := store.GetByAddress(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEntityStore_InvalidInput(t *testing.T) {
	store := NewEntityStore()
	ctx := context.Background()

	cases := []*domain.EntityRecord{
		nil,
		{Address: "", Category: domain.CategoryExchange},
		{Address: "addr1", Category: domain.EntityCategory("NOT_A_CATEGORY")},
	}
	for i, e := range cases {
		if err := store.Insert(ctx, e); !errors.Is(err, storage.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestEntityStore_GetAll(t *testing.T) {
	store := NewEntityStore()
	ctx := context.Background()

	for _, addr := range []string{"charlie", "alpha", "bravo"} {
		e := &domain.EntityRecord{Address: addr, Name: addr, Category: domain.CategorySwapVenue}
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert %s failed: %v", addr, err)
		}
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d entities, want 3", len(all))
	}
	for i, want := range []string{"alpha", "bravo", "charlie"} {
		if all[i].Address != want {
			t.Errorf("position %d: got %s, want %s", i, all[i].Address, want)
		}
	}
}
