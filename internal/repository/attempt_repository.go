package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepstack/mockexam-backend/internal/model"
)

// ErrNoAttempt signals that no attempt row exists for the lookup.
var ErrNoAttempt = errors.New("attempt not found")

// AttemptRepository handles attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create inserts a new IN_PROGRESS attempt.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attempts (assessment_id, candidate_id, started_at, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		a.AssessmentID, a.CandidateID, a.StartedAt, a.Status,
	).Scan(&a.ID)
}

// GetByID retrieves an attempt by its UUID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, assessment_id, candidate_id, started_at, finished_at, status, final_score
		 FROM attempts WHERE id = $1`, id,
	).Scan(&a.ID, &a.AssessmentID, &a.CandidateID, &a.StartedAt, &a.FinishedAt, &a.Status, &a.FinalScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoAttempt
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByAssessmentAndCandidate retrieves a candidate's attempt for an
// assessment. One attempt per candidate per assessment is enforced by a
// unique constraint.
func (r *AttemptRepository) GetByAssessmentAndCandidate(ctx context.Context, assessmentID uuid.UUID, candidateID int) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, assessment_id, candidate_id, started_at, finished_at, status, final_score
		 FROM attempts WHERE assessment_id = $1 AND candidate_id = $2`,
		assessmentID, candidateID,
	).Scan(&a.ID, &a.AssessmentID, &a.CandidateID, &a.StartedAt, &a.FinishedAt, &a.Status, &a.FinalScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoAttempt
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Complete marks an attempt COMPLETED with its final score.
func (r *AttemptRepository) Complete(ctx context.Context, id uuid.UUID, finalScore float64, finishedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = $1, final_score = $2, finished_at = $3
		 WHERE id = $4`,
		model.AttemptStatusCompleted, finalScore, finishedAt, id)
	return err
}

// ListCompletedByAssessment retrieves completed attempts for an assessment,
// ordered by final score descending. Used for author result listings.
func (r *AttemptRepository) ListCompletedByAssessment(ctx context.Context, assessmentID uuid.UUID, limit, offset int) ([]model.Attempt, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE assessment_id = $1 AND status = $2`,
		assessmentID, model.AttemptStatusCompleted,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, assessment_id, candidate_id, started_at, finished_at, status, final_score
		 FROM attempts
		 WHERE assessment_id = $1 AND status = $2
		 ORDER BY final_score DESC NULLS LAST, finished_at ASC
		 LIMIT $3 OFFSET $4`,
		assessmentID, model.AttemptStatusCompleted, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.AssessmentID, &a.CandidateID, &a.StartedAt, &a.FinishedAt, &a.Status, &a.FinalScore); err != nil {
			return nil, 0, err
		}
		attempts = append(attempts, a)
	}
	return attempts, total, rows.Err()
}
