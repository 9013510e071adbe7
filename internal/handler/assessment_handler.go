package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prepstack/mockexam-backend/internal/model"
	"github.com/prepstack/mockexam-backend/internal/repository"
	"github.com/prepstack/mockexam-backend/internal/response"
	"github.com/prepstack/mockexam-backend/internal/service"
	"github.com/prepstack/mockexam-backend/internal/validator"
)

// AssessmentHandler handles the author-facing assessment endpoints.
type AssessmentHandler struct {
	contentService *service.ContentService
	attemptRepo    *repository.AttemptRepository
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(contentService *service.ContentService, attemptRepo *repository.AttemptRepository) *AssessmentHandler {
	return &AssessmentHandler{
		contentService: contentService,
		attemptRepo:    attemptRepo,
	}
}

// Create godoc
// POST /api/v1/author/assessments
// Creates a draft assessment from a full definition document. The
// definition must compile; malformed structure is rejected here.
func (h *AssessmentHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req model.CreateAssessmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	assessment, err := h.contentService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.FailEngine(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"assessment": assessment})
}

// List godoc
// GET /api/v1/author/assessments
// Lists the author's assessments with pagination.
func (h *AssessmentHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	assessments, pagination, err := h.contentService.ListByAuthor(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"assessments": assessments}, pagination)
}

// Get godoc
// GET /api/v1/author/assessments/:assessment_id
// Returns one of the author's assessments, definition included.
func (h *AssessmentHandler) Get(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	assessmentID, ok := parseAssessmentID(c)
	if !ok {
		return
	}

	assessment, err := h.contentService.GetByID(c.Request.Context(), assessmentID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	if assessment.AuthorID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrNotAssessmentAuthor)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assessment": assessment})
}

// Publish godoc
// POST /api/v1/author/assessments/:assessment_id/publish
// Publishes a draft assessment and warms the Redis fast lane.
func (h *AssessmentHandler) Publish(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	assessmentID, ok := parseAssessmentID(c)
	if !ok {
		return
	}

	if err := h.contentService.Publish(c.Request.Context(), assessmentID, claims.UserID); err != nil {
		failContent(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": model.AssessmentStatusPublished})
}

// RefreshCache godoc
// POST /api/v1/author/assessments/:assessment_id/refresh-cache
// Re-warms the cached definition and paper for a published assessment.
func (h *AssessmentHandler) RefreshCache(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	assessmentID, ok := parseAssessmentID(c)
	if !ok {
		return
	}

	if err := h.contentService.RefreshCache(c.Request.Context(), assessmentID, claims.UserID); err != nil {
		failContent(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ListResults godoc
// GET /api/v1/author/assessments/:assessment_id/results
// Lists completed attempts for an assessment, best score first.
func (h *AssessmentHandler) ListResults(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	assessmentID, ok := parseAssessmentID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	assessment, err := h.contentService.GetByID(c.Request.Context(), assessmentID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	if assessment.AuthorID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrNotAssessmentAuthor)
		return
	}

	attempts, total, err := h.attemptRepo.ListCompletedByAssessment(
		c.Request.Context(), assessmentID, perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	totalPages := total / perPage
	if total%perPage != 0 {
		totalPages++
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": attempts}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// failContent maps content service errors, falling through to the engine
// error taxonomy.
func failContent(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotAssessmentAuthor):
		response.Fail(c, http.StatusForbidden, response.ErrNotAssessmentAuthor)
	case errors.Is(err, service.ErrAssessmentNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrAssessmentNotDraft)
	case errors.Is(err, service.ErrAssessmentNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrAssessmentNotPublished)
	default:
		response.FailEngine(c, err)
	}
}
