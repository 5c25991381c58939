package memory

import (
	"context"
	"sort"
	"sync"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

type snapshotKey struct {
	positionID  string
	timestampMs int64
}

// RoiSnapshotStore is an in-memory implementation of storage.RoiSnapshotStore.
type RoiSnapshotStore struct {
	mu   sync.RWMutex
	data map[snapshotKey]*domain.RoiSnapshot
}

// NewRoiSnapshotStore creates a new in-memory snapshot store.
func NewRoiSnapshotStore() *RoiSnapshotStore {
	return &RoiSnapshotStore{data: make(map[snapshotKey]*domain.RoiSnapshot)}
}

// InsertBulk adds snapshots. Fails the entire batch on any duplicate.
func (s *RoiSnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.RoiSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[snapshotKey]struct{}, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil || snap.PositionID == "" {
			return storage.ErrInvalidInput
		}
		key := snapshotKey{snap.PositionID, snap.TimestampMs}
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[key]; exists {
			return storage.ErrDuplicateKey
		}
		batch[key] = struct{}{}
	}

	for _, snap := range snapshots {
		copy := *snap
		s.data[snapshotKey{snap.PositionID, snap.TimestampMs}] = &copy
	}
	return nil
}

// GetByPosition retrieves snapshots for a position, ordered by timestamp ASC.
func (s *RoiSnapshotStore) GetByPosition(_ context.Context, positionID string) ([]*domain.RoiSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RoiSnapshot
	for key, snap := range s.data {
		if key.positionID == positionID {
			copy := *snap
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result, nil
}

var _ storage.RoiSnapshotStore = (*RoiSnapshotStore)(nil)
