package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AssessmentStatus enumerates the possible states of an assessment.
type AssessmentStatus string

const (
	AssessmentStatusDraft     AssessmentStatus = "DRAFT"
	AssessmentStatusPublished AssessmentStatus = "PUBLISHED"
	AssessmentStatusArchived  AssessmentStatus = "ARCHIVED"
)

// SectionCategory is the closed set of section subject areas.
type SectionCategory string

const (
	SectionCategoryQuantitative SectionCategory = "QUANTITATIVE"
	SectionCategoryReasoning    SectionCategory = "REASONING"
	SectionCategoryVerbal       SectionCategory = "VERBAL"
)

// Assessment is the stored entity wrapping a versioned definition document.
type Assessment struct {
	ID         uuid.UUID        `json:"id"`
	AuthorID   int              `json:"author_id"`
	Title      string           `json:"title"`
	Status     AssessmentStatus `json:"status"`
	Definition json.RawMessage  `json:"definition,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// AssessmentDefinition is the full structured test definition. Sections are
// ordered; section ids are unique within the assessment. The question and
// group pools are referenced from sections by id.
type AssessmentDefinition struct {
	ID                   string          `json:"id"`
	Title                string          `json:"title"`
	TotalDurationSeconds int             `json:"total_duration_seconds"`
	Sections             []Section       `json:"sections"`
	Questions            []Question      `json:"questions"`
	Groups               []QuestionGroup `json:"groups,omitempty"`
}

// Section is a time-boxed, independently locked subdivision of an assessment.
// Display order is standalone questions in listed order, then each group's
// sub-questions in listed order, per group in listed order.
type Section struct {
	ID                    string          `json:"id"`
	Category              SectionCategory `json:"category"`
	Title                 string          `json:"title"`
	DurationSeconds       int             `json:"duration_seconds"`
	StandaloneQuestionIDs []string        `json:"standalone_question_ids"`
	QuestionGroupIDs      []string        `json:"question_group_ids,omitempty"`
}

// CreateAssessmentRequest is the payload for creating a draft assessment.
type CreateAssessmentRequest struct {
	Title      string          `json:"title" binding:"required,min=3,max=255"`
	Definition json.RawMessage `json:"definition" binding:"required"`
}
