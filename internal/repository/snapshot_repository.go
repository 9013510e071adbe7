package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotRepository persists attempt snapshots so interrupted attempts can
// resume after a process restart. Redis holds the hot copy; this table is
// the durable one, written by the snapshot worker.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// Upsert writes the latest snapshot document for an attempt.
func (r *SnapshotRepository) Upsert(ctx context.Context, attemptID uuid.UUID, snapshot []byte) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO attempt_snapshots (attempt_id, snapshot, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (attempt_id)
		 DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = NOW()`,
		attemptID, snapshot)
	return err
}

// Get retrieves the stored snapshot document for an attempt.
func (r *SnapshotRepository) Get(ctx context.Context, attemptID uuid.UUID) ([]byte, error) {
	var snapshot []byte
	err := r.pool.QueryRow(ctx,
		`SELECT snapshot FROM attempt_snapshots WHERE attempt_id = $1`, attemptID,
	).Scan(&snapshot)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoAttempt
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Delete removes the snapshot for a finished attempt.
func (r *SnapshotRepository) Delete(ctx context.Context, attemptID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM attempt_snapshots WHERE attempt_id = $1`, attemptID)
	return err
}
