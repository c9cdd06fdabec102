package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"xp-dashboard/internal/profile/domain"
)

// SnapshotRepository is an in-memory snapshot cache. It is the default when
// no database is configured.
type SnapshotRepository struct {
	mu   sync.RWMutex
	data map[string]domain.Snapshot
}

// NewSnapshotRepository constructs a repository.
func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{
		data: make(map[string]domain.Snapshot),
	}
}

// Save stores or replaces a snapshot.
func (r *SnapshotRepository) Save(ctx context.Context, snapshot domain.Snapshot) error {
	_ = ctx
	if snapshot.UserID == "" || snapshot.Key == "" {
		return errors.New("memory: snapshot user id and key are required")
	}
	payload := make([]byte, len(snapshot.Payload))
	copy(payload, snapshot.Payload)
	snapshot.Payload = payload

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[storageKey(snapshot.UserID, snapshot.Key)] = snapshot
	return nil
}

// Find loads the snapshot stored for a user and key.
func (r *SnapshotRepository) Find(ctx context.Context, userID, key string) (domain.Snapshot, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot, ok := r.data[storageKey(userID, key)]
	if !ok {
		return domain.Snapshot{}, domain.ErrSnapshotNotFound
	}
	return snapshot, nil
}

// DeleteOlderThan removes snapshots stored before cutoff.
func (r *SnapshotRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for k, snapshot := range r.data {
		if snapshot.StoredAt.Before(cutoff) {
			delete(r.data, k)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored snapshots.
func (r *SnapshotRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

func storageKey(userID, key string) string {
	return userID + "\x00" + key
}
