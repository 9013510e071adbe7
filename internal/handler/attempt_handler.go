package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prepstack/mockexam-backend/internal/middleware"
	"github.com/prepstack/mockexam-backend/internal/model"
	"github.com/prepstack/mockexam-backend/internal/response"
	"github.com/prepstack/mockexam-backend/internal/service"
	"github.com/prepstack/mockexam-backend/internal/validator"
)

// AttemptHandler handles the candidate-facing attempt endpoints. Every
// mutating endpoint returns the updated snapshot; engine rejections return a
// typed failure and leave the attempt untouched.
type AttemptHandler struct {
	attemptService *service.AttemptService
	contentService *service.ContentService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService, contentService *service.ContentService) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		contentService: contentService,
	}
}

// ListAssessments godoc
// GET /api/v1/candidate/assessments
// Lists published assessments available to the candidate.
func (h *AttemptHandler) ListAssessments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	assessments, pagination, err := h.contentService.ListPublished(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"assessments": assessments}, pagination)
}

// GetPaper godoc
// GET /api/v1/candidate/assessments/:assessment_id/paper
// Returns the sanitized paper: prompts, options, display order. No answer
// keys or solutions.
func (h *AttemptHandler) GetPaper(c *gin.Context) {
	assessmentID, ok := parseAssessmentID(c)
	if !ok {
		return
	}

	paper, err := h.contentService.GetPaper(c.Request.Context(), assessmentID)
	if err != nil {
		response.FailEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// StartAttempt godoc
// POST /api/v1/candidate/assessments/:assessment_id/attempt
// Starts the candidate's attempt, or resumes it if one is in progress.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	assessmentID, ok := parseAssessmentID(c)
	if !ok {
		return
	}

	attempt, snap, err := h.attemptService.Start(c.Request.Context(), assessmentID, claims.UserID)
	if err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"attempt":  attempt,
		"snapshot": snap,
	})
}

// GetSnapshot godoc
// GET /api/v1/candidate/assessments/:assessment_id/attempt
// Returns the attempt's current read-only snapshot.
func (h *AttemptHandler) GetSnapshot(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	assessmentID, ok := parseAssessmentID(c)
	if !ok {
		return
	}

	snap, err := h.attemptService.Snapshot(c.Request.Context(), assessmentID, claims.UserID)
	if err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"snapshot": snap})
}

// SelectQuestion godoc
// POST /api/v1/candidate/assessments/:assessment_id/attempt/select
// Focuses a question in the active section.
func (h *AttemptHandler) SelectQuestion(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	assessmentID, ok := parseAssessmentID(c)
	if !ok {
		return
	}

	var req model.SelectQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.attemptService.Select(c.Request.Context(), assessmentID, claims.UserID, req.QuestionID)
	if err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"snapshot": snap})
}

// SubmitAnswer godoc
// POST /api/v1/candidate/assessments/:assessment_id/attempt/answers
// Submits or overwrites an answer value for a question in the active section.
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	assessmentID, ok := parseAssessmentID(c)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.attemptService.SubmitAnswer(c.Request.Context(), assessmentID, claims.UserID, req.QuestionID, req.Value)
	if err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"snapshot": snap})
}

// ToggleMark godoc
// POST /api/v1/candidate/assessments/:assessment_id/attempt/mark
// Flips the review flag on a question in the active section.
func (h *AttemptHandler) ToggleMark(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	assessmentID, ok := parseAssessmentID(c)
	if !ok {
		return
	}

	var req model.ToggleMarkRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.attemptService.ToggleMark(c.Request.Context(), assessmentID, claims.UserID, req.QuestionID)
	if err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"snapshot": snap})
}

// AdvanceSection godoc
// POST /api/v1/candidate/assessments/:assessment_id/attempt/advance
// Moves from a locked section into the next one.
func (h *AttemptHandler) AdvanceSection(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	assessmentID, ok := parseAssessmentID(c)
	if !ok {
		return
	}

	snap, err := h.attemptService.AdvanceSection(c.Request.Context(), assessmentID, claims.UserID)
	if err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"snapshot": snap})
}

// SubmitExam godoc
// POST /api/v1/candidate/assessments/:assessment_id/attempt/submit
// Finishes the attempt early. All sections lock and the final score is
// computed and queued for persistence.
func (h *AttemptHandler) SubmitExam(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	assessmentID, ok := parseAssessmentID(c)
	if !ok {
		return
	}

	snap, err := h.attemptService.SubmitExam(c.Request.Context(), assessmentID, claims.UserID)
	if err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"snapshot": snap})
}

// GetPalette godoc
// GET /api/v1/candidate/assessments/:assessment_id/attempt/palette
// Returns the navigation palette for the active section.
func (h *AttemptHandler) GetPalette(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	assessmentID, ok := parseAssessmentID(c)
	if !ok {
		return
	}

	palette, err := h.attemptService.Palette(c.Request.Context(), assessmentID, claims.UserID)
	if err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"palette": palette})
}

// GetScore godoc
// GET /api/v1/candidate/assessments/:assessment_id/attempt/score
// Returns the attempt's score breakdown. Provisional while in progress,
// final after completion.
func (h *AttemptHandler) GetScore(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	assessmentID, ok := parseAssessmentID(c)
	if !ok {
		return
	}

	result, err := h.attemptService.Score(c.Request.Context(), assessmentID, claims.UserID)
	if err != nil {
		failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"score": result})
}

// ─── Helpers ────────────────────────────────────────────────────────

func requireClaims(c *gin.Context) (*service.Claims, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}
	return claims, true
}

func parseAssessmentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("assessment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// failAttempt maps attempt service errors, falling through to the engine
// error taxonomy.
func failAttempt(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAttemptNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
	case errors.Is(err, service.ErrAttemptCompleted):
		response.Fail(c, http.StatusConflict, response.ErrAttemptCompleted)
	default:
		response.FailEngine(c, err)
	}
}
