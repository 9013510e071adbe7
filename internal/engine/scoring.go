package engine

import (
	"math"
	"strconv"

	"github.com/prepstack/mockexam-backend/internal/model"
)

// MarkingScheme holds the scoring weights plus the numeric comparison
// epsilon. Exact float equality is a correctness hazard ("18.0" vs "18"), so
// numeric answers compare within an absolute tolerance.
type MarkingScheme struct {
	CorrectDelta     float64 `json:"correct_delta"`
	IncorrectDelta   float64 `json:"incorrect_delta"`
	UnattemptedDelta float64 `json:"unattempted_delta"`
	NumericEpsilon   float64 `json:"numeric_epsilon"`
}

// DefaultMarkingScheme returns the observed marking convention: +3 correct,
// -1 incorrect, 0 unattempted.
func DefaultMarkingScheme() MarkingScheme {
	return MarkingScheme{
		CorrectDelta:     3,
		IncorrectDelta:   -1,
		UnattemptedDelta: 0,
		NumericEpsilon:   1e-6,
	}
}

// Verdict is the per-question scoring outcome.
type Verdict string

const (
	VerdictCorrect     Verdict = "CORRECT"
	VerdictIncorrect   Verdict = "INCORRECT"
	VerdictUnattempted Verdict = "UNATTEMPTED"
)

// SectionScore is one section's subtotal. Provisional marks sections that
// were still unlocked when the score was computed (progress previews).
type SectionScore struct {
	Subtotal    float64 `json:"subtotal"`
	Correct     int     `json:"correct"`
	Incorrect   int     `json:"incorrect"`
	Unattempted int     `json:"unattempted"`
	Provisional bool    `json:"provisional"`
}

// ScoreResult is the aggregate scoring outcome. Derived, never stored in
// session state.
type ScoreResult struct {
	AssessmentID string                  `json:"assessment_id"`
	PerQuestion  map[string]Verdict      `json:"per_question"`
	TotalScore   float64                 `json:"total_score"`
	BySection    map[string]SectionScore `json:"by_section"`
	Completed    bool                    `json:"completed"`
}

// Score computes per-question correctness and the aggregate under the given
// scheme. It only reads the (frozen) state, so repeated calls on the same
// inputs return identical results. Calling before completion is allowed for
// progress previews; unlocked sections come back provisional.
func Score(p *Plan, st State, scheme MarkingScheme) ScoreResult {
	result := ScoreResult{
		AssessmentID: p.AssessmentID,
		PerQuestion:  make(map[string]Verdict),
		BySection:    make(map[string]SectionScore, len(p.Sections)),
		Completed:    st.Phase == PhaseCompleted,
	}

	for i := range p.Sections {
		sp := &p.Sections[i]
		ss := SectionScore{Provisional: !st.LockedSections[sp.ID]}

		for _, entry := range sp.Entries {
			q, _ := sp.Question(entry.QuestionID)
			rec := st.Records[entry.QuestionID]

			verdict := VerdictUnattempted
			if rec.answered() {
				if answerCorrect(q, *rec.Submitted, scheme.NumericEpsilon) {
					verdict = VerdictCorrect
				} else {
					verdict = VerdictIncorrect
				}
			}

			result.PerQuestion[entry.QuestionID] = verdict
			switch verdict {
			case VerdictCorrect:
				ss.Correct++
				ss.Subtotal += scheme.CorrectDelta
			case VerdictIncorrect:
				ss.Incorrect++
				ss.Subtotal += scheme.IncorrectDelta
			case VerdictUnattempted:
				ss.Unattempted++
				ss.Subtotal += scheme.UnattemptedDelta
			}
		}

		result.BySection[sp.ID] = ss
		result.TotalScore += ss.Subtotal
	}

	return result
}

// answerCorrect checks a canonical submitted value against the question's
// answer key. Numeric comparison is tolerance-based, not exact equality, so
// "18.0" matches a correct value of 18.
func answerCorrect(q *model.Question, submitted string, epsilon float64) bool {
	switch q.Kind {
	case model.QuestionKindSingleChoice:
		if q.CorrectOptionIndex == nil {
			return false
		}
		got, err := strconv.Atoi(submitted)
		return err == nil && got == *q.CorrectOptionIndex
	case model.QuestionKindNumericEntry:
		if q.CorrectValue == nil {
			return false
		}
		got, err := strconv.ParseFloat(submitted, 64)
		return err == nil && math.Abs(got-*q.CorrectValue) <= epsilon
	default:
		return false
	}
}
