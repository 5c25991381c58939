package memory

import (
	"context"
	"errors"
	"testing"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

func TestRoiSnapshotStore_InsertBulkAndGet(t *testing.T) {
	store := NewRoiSnapshotStore()
	ctx := context.Background()

	snaps := []*domain.RoiSnapshot{
		{PositionID: "p1", TimestampMs: 2000, ROIPct: 50},
		{PositionID: "p1", TimestampMs: 1000, ROIPct: 10},
		{PositionID: "p2", TimestampMs: 1000, ROIPct: -5},
	}

	if err := store.InsertBulk(ctx, snaps); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByPosition(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByPosition failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(got))
	}
	if got[0].TimestampMs != 1000 || got[1].TimestampMs != 2000 {
		t.Errorf("Wrong order: got [%d, %d]", got[0].TimestampMs, got[1].TimestampMs)
	}
}

func TestRoiSnapshotStore_DuplicateKey(t *testing.T) {
	store := NewRoiSnapshotStore()
	ctx := context.Background()

	first := []*domain.RoiSnapshot{{PositionID: "p1", TimestampMs: 1000}}
	if err := store.InsertBulk(ctx, first); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.RoiSnapshot{
		{PositionID: "p1", TimestampMs: 2000},
		{PositionID: "p1", TimestampMs: 1000},
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Whole batch must fail: the new timestamp must not be stored
	got, err := store.GetByPosition(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByPosition failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected 1 snapshot after failed batch, got %d", len(got))
	}
}

func TestRoiSnapshotStore_IntraBatchDuplicate(t *testing.T) {
	store := NewRoiSnapshotStore()

	err := store.InsertBulk(context.Background(), []*domain.RoiSnapshot{
		{PositionID: "p1", TimestampMs: 1000},
		{PositionID: "p1", TimestampMs: 1000},
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestRoiSnapshotStore_EmptyBatch(t *testing.T) {
	store := NewRoiSnapshotStore()

	if err := store.InsertBulk(context.Background(), nil); err != nil {
		t.Errorf("Empty batch should be a no-op, got %v", err)
	}
}
