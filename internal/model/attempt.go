package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates attempt states as persisted.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
)

// Attempt represents a candidate's run of an assessment.
type Attempt struct {
	ID           uuid.UUID     `json:"id"`
	AssessmentID uuid.UUID     `json:"assessment_id"`
	CandidateID  int           `json:"candidate_id"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
	Status       AttemptStatus `json:"status"`
	FinalScore   *float64      `json:"final_score,omitempty"`
}

// SelectQuestionRequest focuses a question in the active section.
type SelectQuestionRequest struct {
	QuestionID string `json:"question_id" binding:"required,min=1,max=64"`
}

// SubmitAnswerRequest submits or overwrites an answer value.
// Value is an option index for SINGLE_CHOICE or a numeric string for
// NUMERIC_ENTRY; format validation happens in the engine.
type SubmitAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required,min=1,max=64"`
	Value      string `json:"value" binding:"required,max=64"`
}

// ToggleMarkRequest flips the review flag on a question.
type ToggleMarkRequest struct {
	QuestionID string `json:"question_id" binding:"required,min=1,max=64"`
}
