package storage

import (
	"context"

	"solana-sniper/internal/domain"
)

// PositionStore provides durable position records. Upsert is idempotent
// and keyed by position ID so retried writes after a crash are safe to
// replay.
type PositionStore interface {
	// Upsert inserts or fully replaces the position record.
	Upsert(ctx context.Context, p *domain.Position) error

	// GetByID retrieves a position. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Position, error)

	// GetOpenPositions retrieves all positions with exited = false,
	// ordered by created_at ASC.
	GetOpenPositions(ctx context.Context) ([]*domain.Position, error)

	// GetAll retrieves every position, ordered by created_at ASC.
	GetAll(ctx context.Context) ([]*domain.Position, error)
}

// RoiSnapshotStore records per-cycle ROI observations. Append-only;
// duplicates on (position_id, timestamp_ms) return ErrDuplicateKey.
type RoiSnapshotStore interface {
	// InsertBulk adds snapshots. Fails the whole batch on any duplicate.
	InsertBulk(ctx context.Context, snapshots []*domain.RoiSnapshot) error

	// GetByPosition retrieves all snapshots for a position, ordered by
	// timestamp ASC.
	GetByPosition(ctx context.Context, positionID string) ([]*domain.RoiSnapshot, error)
}
