package engine

import (
	"fmt"

	"github.com/prepstack/mockexam-backend/internal/model"
)

// FlatEntry is one displayable question slot in a section's flattened
// sequence. DisplayIndex values are 1-based and contiguous. FlatEntries are
// derived, never persisted.
type FlatEntry struct {
	DisplayIndex int    `json:"display_index"`
	QuestionID   string `json:"question_id"`
	GroupID      string `json:"group_id,omitempty"`
}

// SkippedRef records a reference that could not be flattened. A single
// missing datum must not make the whole section unusable, so the offending
// entry is skipped and the gap kept for diagnostics.
type SkippedRef struct {
	Ref     string `json:"ref"`
	GroupID string `json:"group_id,omitempty"`
	Reason  string `json:"reason"`
}

// Resolver resolves question and group references for a definition. The
// content layer owns the definition; the engine only needs this shape.
type Resolver interface {
	Question(id string) (*model.Question, bool)
	Group(id string) (*model.QuestionGroup, bool)
}

// Flatten turns a section's mixed content into one ordered sequence:
// standalone questions in listed order, then each group's sub-questions in
// listed order, per group in listed order. Pure and deterministic — calling
// it twice on the same section yields identical sequences.
func Flatten(sec model.Section, res Resolver) ([]FlatEntry, []SkippedRef) {
	var entries []FlatEntry
	var skipped []SkippedRef

	next := 1
	add := func(qid, groupID string) {
		entries = append(entries, FlatEntry{
			DisplayIndex: next,
			QuestionID:   qid,
			GroupID:      groupID,
		})
		next++
	}

	for _, qid := range sec.StandaloneQuestionIDs {
		q, ok := res.Question(qid)
		if !ok {
			skipped = append(skipped, SkippedRef{Ref: qid, Reason: "question not found"})
			continue
		}
		if reason := validateQuestion(q); reason != "" {
			skipped = append(skipped, SkippedRef{Ref: qid, Reason: reason})
			continue
		}
		add(qid, "")
	}

	for _, gid := range sec.QuestionGroupIDs {
		g, ok := res.Group(gid)
		if !ok {
			skipped = append(skipped, SkippedRef{Ref: gid, Reason: "group not found"})
			continue
		}
		for i := range g.SubQuestions {
			q := &g.SubQuestions[i]
			if reason := validateQuestion(q); reason != "" {
				skipped = append(skipped, SkippedRef{Ref: q.ID, GroupID: gid, Reason: reason})
				continue
			}
			add(q.ID, gid)
		}
	}

	return entries, skipped
}

// validateQuestion returns a non-empty reason when the question violates its
// kind's invariants and must be skipped.
func validateQuestion(q *model.Question) string {
	switch q.Kind {
	case model.QuestionKindSingleChoice:
		if len(q.Options) == 0 {
			return "single-choice question has no options"
		}
		if q.CorrectOptionIndex == nil {
			return "single-choice question has no correct option"
		}
		if *q.CorrectOptionIndex < 0 || *q.CorrectOptionIndex >= len(q.Options) {
			return fmt.Sprintf("correct option index %d out of bounds", *q.CorrectOptionIndex)
		}
	case model.QuestionKindNumericEntry:
		if q.CorrectValue == nil {
			return "numeric-entry question has no correct value"
		}
	default:
		return fmt.Sprintf("unsupported question kind %q", q.Kind)
	}
	return ""
}

// definitionResolver serves lookups from a definition's question and group
// pools. Group-owned sub-questions resolve only through their group.
type definitionResolver struct {
	questions map[string]*model.Question
	groups    map[string]*model.QuestionGroup
}

// NewResolver indexes a definition's pools for flattening.
func NewResolver(def *model.AssessmentDefinition) Resolver {
	r := &definitionResolver{
		questions: make(map[string]*model.Question, len(def.Questions)),
		groups:    make(map[string]*model.QuestionGroup, len(def.Groups)),
	}
	for i := range def.Questions {
		r.questions[def.Questions[i].ID] = &def.Questions[i]
	}
	for i := range def.Groups {
		r.groups[def.Groups[i].ID] = &def.Groups[i]
	}
	return r
}

func (r *definitionResolver) Question(id string) (*model.Question, bool) {
	q, ok := r.questions[id]
	return q, ok
}

func (r *definitionResolver) Group(id string) (*model.QuestionGroup, bool) {
	g, ok := r.groups[id]
	return g, ok
}
