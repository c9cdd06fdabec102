package domain

import (
	"context"
	"errors"
	"time"
)

// Snapshot cache keys. Category arrays hold normalized transactions; the
// totals entry is written for reference only and never read back as truth.
const (
	CacheKeyProjectXP    = "userXPData"
	CacheKeyCheckpointXP = "userCheckpointsXPData"
	CacheKeyPiscineXP    = "jspiscineXPData"
	CacheKeyTotals       = "totalXPStats"
)

// ErrSnapshotNotFound is returned when no snapshot is stored for a key.
var ErrSnapshotNotFound = errors.New("domain: snapshot not found")

// Snapshot is one advisory cache entry scoped to a user.
type Snapshot struct {
	UserID   string
	Key      string
	Payload  []byte
	StoredAt time.Time
}

// FreshAt reports whether the snapshot is younger than ttl at now.
func (s Snapshot) FreshAt(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 || s.StoredAt.IsZero() {
		return false
	}
	return now.Sub(s.StoredAt) < ttl
}

// SnapshotRepository persists advisory snapshots.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Find(ctx context.Context, userID, key string) (Snapshot, error)
}

// SnapshotPruner removes snapshots stored before cutoff.
type SnapshotPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CacheKeyFor returns the snapshot key of a category transaction array.
func CacheKeyFor(c Category) (string, bool) {
	switch c {
	case CategoryProject:
		return CacheKeyProjectXP, true
	case CategoryCheckpoint:
		return CacheKeyCheckpointXP, true
	case CategoryPiscine:
		return CacheKeyPiscineXP, true
	default:
		return "", false
	}
}
