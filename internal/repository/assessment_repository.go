package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepstack/mockexam-backend/internal/model"
)

// AssessmentRepository handles assessment data access. The definition
// document is stored as a jsonb column and treated as opaque here; the
// engine compiles and validates it.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

// GetByID retrieves an assessment by its UUID, definition included.
func (r *AssessmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	a := &model.Assessment{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, author_id, title, status, definition, created_at, updated_at
		 FROM assessments WHERE id = $1`, id,
	).Scan(&a.ID, &a.AuthorID, &a.Title, &a.Status, &a.Definition, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListByAuthorPaginated retrieves assessments owned by an author with
// pagination. Definitions are omitted from listings.
func (r *AssessmentRepository) ListByAuthorPaginated(ctx context.Context, authorID, limit, offset int) ([]model.Assessment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM assessments WHERE author_id = $1`, authorID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, author_id, title, status, created_at, updated_at
	          FROM assessments WHERE author_id = $1
	          ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, authorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var assessments []model.Assessment
	for rows.Next() {
		var a model.Assessment
		if err := rows.Scan(&a.ID, &a.AuthorID, &a.Title, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		assessments = append(assessments, a)
	}
	return assessments, total, rows.Err()
}

// ListPublishedPaginated retrieves published assessments visible to candidates.
func (r *AssessmentRepository) ListPublishedPaginated(ctx context.Context, limit, offset int) ([]model.Assessment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM assessments WHERE status = $1`, model.AssessmentStatusPublished,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, author_id, title, status, created_at, updated_at
	          FROM assessments WHERE status = $1
	          ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, model.AssessmentStatusPublished, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var assessments []model.Assessment
	for rows.Next() {
		var a model.Assessment
		if err := rows.Scan(&a.ID, &a.AuthorID, &a.Title, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		assessments = append(assessments, a)
	}
	return assessments, total, rows.Err()
}

// ListPublished returns all assessments with PUBLISHED status, definitions
// included. Used for cache prewarming on application startup.
func (r *AssessmentRepository) ListPublished(ctx context.Context) ([]model.Assessment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, author_id, title, status, definition, created_at, updated_at
		 FROM assessments WHERE status = $1`, model.AssessmentStatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assessments []model.Assessment
	for rows.Next() {
		var a model.Assessment
		if err := rows.Scan(&a.ID, &a.AuthorID, &a.Title, &a.Status, &a.Definition, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}

// Create inserts a new draft assessment.
func (r *AssessmentRepository) Create(ctx context.Context, a *model.Assessment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO assessments (author_id, title, status, definition)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		a.AuthorID, a.Title, a.Status, a.Definition,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// UpdateDefinition replaces the definition document of a draft assessment.
func (r *AssessmentRepository) UpdateDefinition(ctx context.Context, id uuid.UUID, definition []byte) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assessments SET definition = $1, updated_at = NOW() WHERE id = $2`,
		definition, id)
	return err
}

// UpdateStatus updates an assessment's status.
func (r *AssessmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AssessmentStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assessments SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}
