package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"xp-dashboard/internal/profile/domain"
)

const defaultSnapshotTable = "dashboard_snapshots"

// SnapshotRepository stores advisory dashboard snapshots in Postgres.
type SnapshotRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*SnapshotRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *SnapshotRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewSnapshotRepository creates a repository using the default table name.
func NewSnapshotRepository(db *sql.DB, opts ...RepositoryOption) (*SnapshotRepository, error) {
	if db == nil {
		return nil, errors.New("postgres: nil db")
	}
	repo := &SnapshotRepository{db: db, table: defaultSnapshotTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

// EnsureSchema creates the snapshot table when it does not exist.
func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	user_id TEXT NOT NULL,
	cache_key TEXT NOT NULL,
	payload BYTEA NOT NULL,
	stored_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, cache_key)
)`, r.table)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("postgres: ensure snapshot schema: %w", err)
	}
	return nil
}

// Save upserts a snapshot.
func (r *SnapshotRepository) Save(ctx context.Context, snapshot domain.Snapshot) error {
	if snapshot.UserID == "" || snapshot.Key == "" {
		return errors.New("postgres: snapshot user id and key are required")
	}
	storedAt := snapshot.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}
	query := fmt.Sprintf(`
INSERT INTO %s (user_id, cache_key, payload, stored_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, cache_key)
DO UPDATE SET payload = EXCLUDED.payload, stored_at = EXCLUDED.stored_at`, r.table)
	if _, err := r.db.ExecContext(ctx, query, snapshot.UserID, snapshot.Key, snapshot.Payload, storedAt.UTC()); err != nil {
		return fmt.Errorf("postgres: save snapshot: %w", err)
	}
	return nil
}

// Find loads a snapshot by user and key.
func (r *SnapshotRepository) Find(ctx context.Context, userID, key string) (domain.Snapshot, error) {
	query := fmt.Sprintf(`
SELECT payload, stored_at
FROM %s
WHERE user_id = $1 AND cache_key = $2`, r.table)
	snapshot := domain.Snapshot{UserID: userID, Key: key}
	err := r.db.QueryRowContext(ctx, query, userID, key).Scan(&snapshot.Payload, &snapshot.StoredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("postgres: find snapshot: %w", err)
	}
	snapshot.StoredAt = snapshot.StoredAt.UTC()
	return snapshot, nil
}

// DeleteOlderThan removes snapshots stored before cutoff.
func (r *SnapshotRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE stored_at < $1`, r.table)
	res, err := r.db.ExecContext(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("postgres: delete snapshots: %w", err)
	}
	return res.RowsAffected()
}
