package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

func TestPositionStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPositionStore(pool)
	ctx := context.Background()

	t.Run("UpsertAndGet", func(t *testing.T) {
		p := &domain.Position{
			ID:                 "pos-upsert",
			PoolID:             "pool1",
			Mint:               "MintAAA",
			Symbol:             "AAA",
			BaseMint:           "So11111111111111111111111111111111111111112",
			InitialPrice:       0.0005,
			InitialTokenAmount: 1_000_000,
			InitialBaseAmount:  500_000,
			CreatedAt:          1704067200000,
			EntryMcap:          25_000,
		}

		require.NoError(t, store.Upsert(ctx, p))

		got, err := store.GetByID(ctx, "pos-upsert")
		require.NoError(t, err)
		assert.Equal(t, p.Mint, got.Mint)
		assert.Equal(t, p.InitialTokenAmount, got.InitialTokenAmount)
		assert.Equal(t, p.EntryMcap, got.EntryMcap)
		assert.False(t, got.Exited)
	})

	t.Run("UpsertReplaces", func(t *testing.T) {
		p := &domain.Position{
			ID: "pos-replace", PoolID: "pool1", Mint: "m", BaseMint: "b", CreatedAt: 1000,
		}
		require.NoError(t, store.Upsert(ctx, p))

		p.WithdrawalPending = true
		require.NoError(t, store.Upsert(ctx, p))

		p.WithdrawalPending = false
		p.TP1Done = true
		require.NoError(t, store.Upsert(ctx, p))

		got, err := store.GetByID(ctx, "pos-replace")
		require.NoError(t, err)
		assert.True(t, got.TP1Done)
		assert.False(t, got.WithdrawalPending)
	})

	t.Run("GetByIDNotFound", func(t *testing.T) {
		_, err := store.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("GetOpenPositions", func(t *testing.T) {
		positions := []*domain.Position{
			{ID: "open-b", PoolID: "p", Mint: "m", BaseMint: "bm", CreatedAt: 2000},
			{ID: "open-a", PoolID: "p", Mint: "m", BaseMint: "bm", CreatedAt: 1500},
			{ID: "open-closed", PoolID: "p", Mint: "m", BaseMint: "bm", CreatedAt: 100, Exited: true},
		}
		for _, p := range positions {
			require.NoError(t, store.Upsert(ctx, p))
		}

		open, err := store.GetOpenPositions(ctx)
		require.NoError(t, err)

		ids := make([]string, 0, len(open))
		for _, p := range open {
			assert.False(t, p.Exited)
			ids = append(ids, p.ID)
		}
		assert.NotContains(t, ids, "open-closed")

		// created_at ASC within this subtest's rows
		idxA, idxB := indexOf(ids, "open-a"), indexOf(ids, "open-b")
		require.GreaterOrEqual(t, idxA, 0)
		require.GreaterOrEqual(t, idxB, 0)
		assert.Less(t, idxA, idxB)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		err := store.Upsert(ctx, &domain.Position{})
		assert.ErrorIs(t, err, storage.ErrInvalidInput)
	})
}

func indexOf(ss []string, want string) int {
	for i, s := range ss {
		if s == want {
			return i
		}
	}
	return -1
}
