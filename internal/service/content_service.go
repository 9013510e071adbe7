package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prepstack/mockexam-backend/internal/config"
	"github.com/prepstack/mockexam-backend/internal/engine"
	"github.com/prepstack/mockexam-backend/internal/model"
	"github.com/prepstack/mockexam-backend/internal/repository"
	"github.com/prepstack/mockexam-backend/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Content service errors.
var (
	ErrNotAssessmentAuthor    = errors.New("not the author of this assessment")
	ErrAssessmentNotDraft     = errors.New("assessment is not in draft status")
	ErrAssessmentNotPublished = errors.New("assessment is not published")
)

// ContentService owns the assessment lifecycle: authoring, publishing, and
// the Redis fast lane that serves definitions and candidate papers without
// touching PostgreSQL on the hot path.
type ContentService struct {
	assessmentRepo *repository.AssessmentRepository
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewContentService creates a new ContentService.
func NewContentService(assessmentRepo *repository.AssessmentRepository, rdb *redis.Client, log zerolog.Logger) *ContentService {
	return &ContentService{
		assessmentRepo: assessmentRepo,
		rdb:            rdb,
		log:            log.With().Str("component", "content_service").Logger(),
	}
}

// Create validates and stores a new draft assessment. The definition must
// compile: structural problems are rejected here rather than at first
// attempt.
func (s *ContentService) Create(ctx context.Context, authorID int, req *model.CreateAssessmentRequest) (*model.Assessment, error) {
	var def model.AssessmentDefinition
	if err := json.Unmarshal(req.Definition, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrMalformedDefinition, err)
	}
	if _, err := engine.Compile(&def); err != nil {
		return nil, err
	}

	a := &model.Assessment{
		AuthorID:   authorID,
		Title:      req.Title,
		Status:     model.AssessmentStatusDraft,
		Definition: req.Definition,
	}
	if err := s.assessmentRepo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create assessment: %w", err)
	}
	return a, nil
}

// GetByID retrieves an assessment by its UUID.
func (s *ContentService) GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	return s.assessmentRepo.GetByID(ctx, id)
}

// ListByAuthor retrieves an author's assessments with pagination.
func (s *ContentService) ListByAuthor(ctx context.Context, authorID, page, perPage int) ([]model.Assessment, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	assessments, total, err := s.assessmentRepo.ListByAuthorPaginated(ctx, authorID, perPage, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("list assessments: %w", err)
	}

	return assessments, buildPagination(page, perPage, total), nil
}

// ListPublished retrieves published assessments visible to candidates.
func (s *ContentService) ListPublished(ctx context.Context, page, perPage int) ([]model.Assessment, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	assessments, total, err := s.assessmentRepo.ListPublishedPaginated(ctx, perPage, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("list published assessments: %w", err)
	}

	return assessments, buildPagination(page, perPage, total), nil
}

// Publish changes assessment status to PUBLISHED and caches the definition
// and candidate paper in Redis. This is the critical path that populates the
// fast lane.
func (s *ContentService) Publish(ctx context.Context, assessmentID uuid.UUID, authorID int) error {
	a, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return fmt.Errorf("get assessment: %w", err)
	}

	if a.AuthorID != authorID {
		return ErrNotAssessmentAuthor
	}
	if a.Status != model.AssessmentStatusDraft {
		return ErrAssessmentNotDraft
	}

	if err := s.WarmAssessmentCache(ctx, a); err != nil {
		return err
	}

	if err := s.assessmentRepo.UpdateStatus(ctx, assessmentID, model.AssessmentStatusPublished); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.log.Info().Str("assessment_id", assessmentID.String()).Msg("Assessment published")
	return nil
}

// RefreshCache re-caches the definition and paper for a published
// assessment. Called when the definition is corrected after publish.
func (s *ContentService) RefreshCache(ctx context.Context, assessmentID uuid.UUID, authorID int) error {
	a, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return fmt.Errorf("get assessment: %w", err)
	}

	if a.AuthorID != authorID {
		return ErrNotAssessmentAuthor
	}
	if a.Status != model.AssessmentStatusPublished {
		return ErrAssessmentNotPublished
	}

	if err := s.WarmAssessmentCache(ctx, a); err != nil {
		return err
	}

	s.log.Info().Str("assessment_id", assessmentID.String()).Msg("Cache refreshed")
	return nil
}

// WarmAssessmentCache loads an assessment's definition and candidate paper
// from PostgreSQL into Redis. Core cache-warming logic shared by Publish,
// RefreshCache, and PrewarmAllCaches.
func (s *ContentService) WarmAssessmentCache(ctx context.Context, a *model.Assessment) error {
	var def model.AssessmentDefinition
	if err := json.Unmarshal(a.Definition, &def); err != nil {
		return fmt.Errorf("%w: %v", engine.ErrMalformedDefinition, err)
	}

	plan, err := engine.Compile(&def)
	if err != nil {
		return err
	}

	paper := plan.Paper(engine.NewResolver(&def))
	paperJSON, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}

	// Cache both atomically via pipeline. The definition (answer keys
	// included) never leaves the server; only the paper is sent to clients.
	id := a.ID.String()
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.AssessmentPayloadKey(id), paperJSON, 0)
	pipe.Set(ctx, config.CacheKey.AssessmentDefinitionKey(id), []byte(a.Definition), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("assessment_id", id).
		Int("sections", len(plan.Sections)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads all published assessments into Redis on application
// startup. This prevents lazy-loading races under thundering herd traffic.
func (s *ContentService) PrewarmAllCaches(ctx context.Context) error {
	assessments, err := s.assessmentRepo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published assessments: %w", err)
	}

	if len(assessments) == 0 {
		s.log.Info().Msg("No published assessments to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(assessments)).Msg("Prewarming published assessments...")

	warmed := 0
	for i := range assessments {
		if err := s.WarmAssessmentCache(ctx, &assessments[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("assessment_id", assessments[i].ID.String()).
				Msg("Failed to warm assessment, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(assessments)).
		Msg("Prewarming complete")
	return nil
}

// LoadDefinition retrieves a published assessment's full definition, Redis
// first with a PostgreSQL fallback that self-heals the cache.
func (s *ContentService) LoadDefinition(ctx context.Context, assessmentID uuid.UUID) (*model.AssessmentDefinition, error) {
	key := config.CacheKey.AssessmentDefinitionKey(assessmentID.String())
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get definition: %w", err)
	}

	if errors.Is(err, redis.Nil) {
		a, dbErr := s.assessmentRepo.GetByID(ctx, assessmentID)
		if dbErr != nil {
			return nil, fmt.Errorf("%w: %s", engine.ErrDefinitionNotFound, assessmentID)
		}
		if a.Status != model.AssessmentStatusPublished {
			return nil, fmt.Errorf("%w: assessment %s not published", engine.ErrDefinitionNotFound, assessmentID)
		}
		if warmErr := s.WarmAssessmentCache(ctx, a); warmErr != nil {
			return nil, warmErr
		}
		data = []byte(a.Definition)
	}

	var def model.AssessmentDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrMalformedDefinition, err)
	}
	return &def, nil
}

// GetPaper retrieves the cached candidate paper from Redis, with the same
// self-healing fallback as LoadDefinition.
func (s *ContentService) GetPaper(ctx context.Context, assessmentID uuid.UUID) (*model.Paper, error) {
	key := config.CacheKey.AssessmentPayloadKey(assessmentID.String())
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get paper: %w", err)
	}

	if errors.Is(err, redis.Nil) {
		def, loadErr := s.LoadDefinition(ctx, assessmentID)
		if loadErr != nil {
			return nil, loadErr
		}
		plan, compErr := engine.Compile(def)
		if compErr != nil {
			return nil, compErr
		}
		paper := plan.Paper(engine.NewResolver(def))
		return &paper, nil
	}

	var paper model.Paper
	if err := json.Unmarshal(data, &paper); err != nil {
		return nil, fmt.Errorf("unmarshal paper: %w", err)
	}
	return &paper, nil
}

// buildPagination computes pagination metadata the way the API reports it.
func buildPagination(page, perPage, total int) *response.Pagination {
	totalPages := total / perPage
	if total%perPage != 0 {
		totalPages++
	}
	return &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
