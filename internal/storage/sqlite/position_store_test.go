package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

func newTestStore(t *testing.T) *PositionStore {
	t.Helper()

	store, err := NewPositionStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewPositionStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPositionStore_UpsertAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := &domain.Position{
		ID:                 "pos1",
		PoolID:             "pool1",
		Mint:               "MintAAA",
		Symbol:             "AAA",
		BaseMint:           "So11111111111111111111111111111111111111112",
		InitialPrice:       0.0005,
		InitialTokenAmount: 1_000_000,
		InitialBaseAmount:  500_000,
		CreatedAt:          1704067200000,
		TP1Done:            true,
		WithdrawalPending:  true,
		PositionValue:      12.5,
	}

	if err := store.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "pos1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.InitialTokenAmount != 1_000_000 {
		t.Errorf("InitialTokenAmount mismatch: got %d", got.InitialTokenAmount)
	}
	if !got.TP1Done || !got.WithdrawalPending {
		t.Errorf("Flag round-trip failed: tp1=%v pending=%v", got.TP1Done, got.WithdrawalPending)
	}
	if got.TakeProfitDone || got.Exited {
		t.Error("Unset flags came back set")
	}
}

func TestPositionStore_UpsertReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := &domain.Position{ID: "pos1", PoolID: "pool1", Mint: "m", BaseMint: "b", CreatedAt: 1000}
	if err := store.Upsert(ctx, p); err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}

	p.Exited = true
	p.StopLossDone = true
	if err := store.Upsert(ctx, p); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "pos1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.Exited || !got.StopLossDone {
		t.Error("Expected replaced flags after second upsert")
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Expected 1 row, got %d", len(all))
	}
}

func TestPositionStore_GetByIDNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPositionStore_GetOpenPositions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	positions := []*domain.Position{
		{ID: "b", PoolID: "p", Mint: "m", BaseMint: "bm", CreatedAt: 2000},
		{ID: "a", PoolID: "p", Mint: "m", BaseMint: "bm", CreatedAt: 1000},
		{ID: "closed", PoolID: "p", Mint: "m", BaseMint: "bm", CreatedAt: 500, Exited: true},
	}
	for _, p := range positions {
		if err := store.Upsert(ctx, p); err != nil {
			t.Fatalf("Upsert %s failed: %v", p.ID, err)
		}
	}

	open, err := store.GetOpenPositions(ctx)
	if err != nil {
		t.Fatalf("GetOpenPositions failed: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("Expected 2 open positions, got %d", len(open))
	}
	if open[0].ID != "a" || open[1].ID != "b" {
		t.Errorf("Wrong order: got [%s, %s]", open[0].ID, open[1].ID)
	}
}

func TestPositionStore_InvalidInput(t *testing.T) {
	store := newTestStore(t)

	err := store.Upsert(context.Background(), &domain.Position{})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
