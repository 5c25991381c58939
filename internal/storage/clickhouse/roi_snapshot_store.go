package clickhouse

import (
	"context"
	"fmt"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// RoiSnapshotStore implements storage.RoiSnapshotStore using ClickHouse.
// Monitor cycles produce one row per open position; the table is
// append-only and queried offline for post-trade analysis.
type RoiSnapshotStore struct {
	conn *Conn
}

// NewRoiSnapshotStore creates a new RoiSnapshotStore.
func NewRoiSnapshotStore(conn *Conn) *RoiSnapshotStore {
	return &RoiSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RoiSnapshotStore = (*RoiSnapshotStore)(nil)

// InsertBulk adds snapshots. Fails the entire batch on any duplicate
// (position_id, timestamp_ms). ClickHouse MergeTree does not enforce
// uniqueness so duplicates are checked explicitly before insert.
func (s *RoiSnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.RoiSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		positionID  string
		timestampMs int64
	}
	seen := make(map[key]struct{})
	for _, snap := range snapshots {
		k := key{snap.PositionID, snap.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, snap := range snapshots {
		exists, err := s.exists(ctx, snap.PositionID, snap.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO roi_snapshots (
			position_id, timestamp_ms, price, roi_pct, value
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			snap.PositionID, uint64(snap.TimestampMs),
			snap.Price, snap.ROIPct, snap.Value,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPosition retrieves all snapshots for a position, ordered by timestamp ASC.
func (s *RoiSnapshotStore) GetByPosition(ctx context.Context, positionID string) ([]*domain.RoiSnapshot, error) {
	query := `
		SELECT position_id, timestamp_ms, price, roi_pct, value
		FROM roi_snapshots
		WHERE position_id = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, positionID)
	if err != nil {
		return nil, fmt.Errorf("query by position id: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.RoiSnapshot
	for rows.Next() {
		var snap domain.RoiSnapshot
		var timestampMs uint64

		err := rows.Scan(
			&snap.PositionID, &timestampMs,
			&snap.Price, &snap.ROIPct, &snap.Value,
		)
		if err != nil {
			return nil, fmt.Errorf("scan roi snapshot row: %w", err)
		}

		snap.TimestampMs = int64(timestampMs)
		snapshots = append(snapshots, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roi snapshot rows: %w", err)
	}

	return snapshots, nil
}

// exists checks if a snapshot with the given key exists.
func (s *RoiSnapshotStore) exists(ctx context.Context, positionID string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM roi_snapshots
		WHERE position_id = ? AND timestamp_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, positionID, uint64(timestampMs)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
