package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreAppliesMarkingScheme(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	scheme := DefaultMarkingScheme()
	st := activeState(t, plan)

	st, _, _ = Reduce(plan, st, SubmitAnswer{QuestionID: "q1", Value: "2"}) // correct
	st, _, _ = Reduce(plan, st, SubmitAnswer{QuestionID: "q2", Value: "3"}) // incorrect
	st, _, _ = Reduce(plan, st, SubmitExam{})

	result := Score(plan, st, scheme)

	assert.Equal(t, VerdictCorrect, result.PerQuestion["q1"])
	assert.Equal(t, VerdictIncorrect, result.PerQuestion["q2"])
	assert.Equal(t, VerdictUnattempted, result.PerQuestion["q3"])
	assert.Equal(t, VerdictUnattempted, result.PerQuestion["q4"])
	assert.Equal(t, VerdictUnattempted, result.PerQuestion["q5"])

	s1 := result.BySection["s1"]
	assert.Equal(t, 1, s1.Correct)
	assert.Equal(t, 1, s1.Incorrect)
	assert.Equal(t, 2, s1.Unattempted)
	assert.InDelta(t, scheme.CorrectDelta+scheme.IncorrectDelta, s1.Subtotal, 1e-9)
	assert.False(t, s1.Provisional)

	assert.InDelta(t, s1.Subtotal+result.BySection["s2"].Subtotal, result.TotalScore, 1e-9)
	assert.True(t, result.Completed)
}

func TestScoreNumericTolerance(t *testing.T) {
	// End-to-end scenario C: "18.0" matches a correct value of 18 despite
	// the textual representation difference.
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)

	st, _, _ = Reduce(plan, st, ExpireSection{})
	st, _, _ = Reduce(plan, st, AdvanceSection{})
	st, _, err := Reduce(plan, st, SubmitAnswer{QuestionID: "q5", Value: "18.0"})
	require.NoError(t, err)
	st, _, _ = Reduce(plan, st, SubmitExam{})

	result := Score(plan, st, DefaultMarkingScheme())
	assert.Equal(t, VerdictCorrect, result.PerQuestion["q5"])
}

func TestScoreNumericOutsideTolerance(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)

	st, _, _ = Reduce(plan, st, ExpireSection{})
	st, _, _ = Reduce(plan, st, AdvanceSection{})
	st, _, _ = Reduce(plan, st, SubmitAnswer{QuestionID: "q5", Value: "18.1"})
	st, _, _ = Reduce(plan, st, SubmitExam{})

	result := Score(plan, st, DefaultMarkingScheme())
	assert.Equal(t, VerdictIncorrect, result.PerQuestion["q5"])
}

func TestScoreUnattemptedAfterExpiry(t *testing.T) {
	// End-to-end scenario D: never focus anything; after expiry every
	// record contributes the unattempted delta.
	plan := mustCompile(twoSectionDefinition())
	scheme := MarkingScheme{CorrectDelta: 3, IncorrectDelta: -1, UnattemptedDelta: -0.5, NumericEpsilon: 1e-6}
	st := activeState(t, plan)

	st, _, _ = Reduce(plan, st, SubmitExam{})

	result := Score(plan, st, scheme)
	for qid, verdict := range result.PerQuestion {
		assert.Equal(t, VerdictUnattempted, verdict, "question %s", qid)
	}
	assert.InDelta(t, 5*scheme.UnattemptedDelta, result.TotalScore, 1e-9)
}

func TestMarkedWithoutValueIsUnattempted(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)

	st, _, _ = Reduce(plan, st, ToggleMark{QuestionID: "q1"})
	st, _, _ = Reduce(plan, st, SubmitExam{})

	result := Score(plan, st, DefaultMarkingScheme())
	assert.Equal(t, VerdictUnattempted, result.PerQuestion["q1"])
}

func TestScoreIsDeterministic(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)
	st, _, _ = Reduce(plan, st, SubmitAnswer{QuestionID: "q1", Value: "2"})
	st, _, _ = Reduce(plan, st, SubmitExam{})

	first := Score(plan, st, DefaultMarkingScheme())
	second := Score(plan, st, DefaultMarkingScheme())
	assert.Equal(t, first, second)
}

func TestPreviewMarksUnlockedSectionsProvisional(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)

	result := Score(plan, st, DefaultMarkingScheme())
	assert.False(t, result.Completed)
	assert.True(t, result.BySection["s1"].Provisional)
	assert.True(t, result.BySection["s2"].Provisional)

	st, _, _ = Reduce(plan, st, ExpireSection{})
	result = Score(plan, st, DefaultMarkingScheme())
	assert.False(t, result.BySection["s1"].Provisional)
	assert.True(t, result.BySection["s2"].Provisional)
}
