package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-fund-tracer/internal/domain"
	"solana-fund-tracer/internal/storage"
)

func sampleTrace(traceID string, startedAt int64) *domain.TraceRecord {
	return &domain.TraceRecord{
		TraceID:        traceID,
		SourceAddress:  "Victim1111111111111111111111111111111111111",
		AssetClass:     domain.AssetNative,
		TotalStolen:    decimal.NewFromInt(100),
		TracedAmount:   decimal.NewFromInt(100),
		ExchangeAmount: decimal.NewFromInt(60),
		SwapAmount:     decimal.Zero,
		BridgeAmount:   decimal.Zero,
		UntracedAmount: decimal.NewFromInt(40),
		MaxHops:        3,
		RowCount:       2,
		StartedAt:      startedAt,
		FinishedAt:     startedAt + 10,
	}
}

func TestTraceStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTraceStore(pool)
	ctx := context.Background()

	tr := sampleTrace("trace-001", 1700000000)
	require.NoError(t, store.Insert(ctx, tr))

	got, err := store.GetByID(ctx, "trace-001")
	require.NoError(t, err)

	assert.Equal(t, tr.TraceID, got.TraceID)
	assert.Equal(t, tr.SourceAddress, got.SourceAddress)
	assert.Equal(t, tr.AssetClass, got.AssetClass)
	assert.Equal(t, tr.Mint, got.Mint)
	assert.True(t, tr.TotalStolen.Equal(got.TotalStolen), "TotalStolen = %s", got.TotalStolen)
	assert.True(t, tr.TracedAmount.Equal(got.TracedAmount))
	assert.True(t, tr.ExchangeAmount.Equal(got.ExchangeAmount))
	assert.True(t, tr.UntracedAmount.Equal(got.UntracedAmount))
	assert.Equal(t, tr.MaxHops, got.MaxHops)
	assert.Equal(t, tr.RowCount, got.RowCount)
	assert.Equal(t, tr.StartedAt, got.StartedAt)
	assert.Equal(t, tr.FinishedAt, got.FinishedAt)
	assert.NotZero(t, got.CreatedAt)
}

func TestTraceStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTraceStore(pool)
	ctx := context.Background()

	tr := sampleTrace("trace-dup", 1700000000)
	require.NoError(t, store.Insert(ctx, tr))

	err := store.Insert(ctx, tr)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTraceStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTraceStore(pool)

	_, err := store.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTraceStore_GetBySourceAddress(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTraceStore(pool)
	ctx := context.Background()

	t1 := sampleTrace("trace-old", 1000)
	t2 := sampleTrace("trace-new", 2000)
	other := sampleTrace("trace-other", 1500)
	other.SourceAddress = "OtherVictim11111111111111111111111111111111"

	for _, tr := range []*domain.TraceRecord{t1, t2, other} {
		require.NoError(t, store.Insert(ctx, tr))
	}

	got, err := store.GetBySourceAddress(ctx, t1.SourceAddress)
	require.NoError(t, err)

	// Newest first.
	require.Len(t, got, 2)
	assert.Equal(t, "trace-new", got[0].TraceID)
	assert.Equal(t, "trace-old", got[1].TraceID)
}

func TestTraceStore_GetRecent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTraceStore(pool)
	ctx := context.Background()

	for i, id := range []string{"trace-a", "trace-b", "trace-c"} {
		tr := sampleTrace(id, int64(1000*(i+1)))
		require.NoError(t, store.Insert(ctx, tr))
	}

	got, err := store.GetRecent(ctx, 2)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "trace-c", got[0].TraceID)
	assert.Equal(t, "trace-b", got[1].TraceID)
}

func TestTraceStore_TokenTrace(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTraceStore(pool)
	ctx := context.Background()

	tr := sampleTrace("trace-token", 1700000000)
	tr.AssetClass = domain.AssetToken
	tr.Mint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	require.NoError(t, store.Insert(ctx, tr))

	got, err := store.GetByID(ctx, "trace-token")
	require.NoError(t, err)
	assert.Equal(t, domain.AssetToken, got.AssetClass)
	assert.Equal(t, tr.Mint, got.Mint)
}
