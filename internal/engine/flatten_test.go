package engine

import (
	"testing"

	"github.com/prepstack/mockexam-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenOrderAndIndexes(t *testing.T) {
	def := twoSectionDefinition()
	res := NewResolver(def)

	entries, skipped := Flatten(def.Sections[0], res)
	require.Empty(t, skipped)
	require.Len(t, entries, 4)

	// Standalones first, then group sub-questions in listed order.
	assert.Equal(t, []string{"q1", "q2", "q3", "q4"}, questionIDs(entries))

	// Display indexes are 1-based, contiguous, no gaps.
	for i, e := range entries {
		assert.Equal(t, i+1, e.DisplayIndex)
	}

	// Group membership recorded only for grouped entries.
	assert.Empty(t, entries[0].GroupID)
	assert.Equal(t, "g1", entries[2].GroupID)
	assert.Equal(t, "g1", entries[3].GroupID)
}

func TestFlattenIsDeterministic(t *testing.T) {
	def := twoSectionDefinition()
	res := NewResolver(def)

	first, _ := Flatten(def.Sections[0], res)
	second, _ := Flatten(def.Sections[0], res)
	assert.Equal(t, first, second)
}

func TestFlattenSkipsUnresolvableRefs(t *testing.T) {
	def := twoSectionDefinition()
	def.Sections[0].StandaloneQuestionIDs = []string{"q1", "ghost", "q2"}
	def.Sections[0].QuestionGroupIDs = []string{"missing-group", "g1"}
	res := NewResolver(def)

	entries, skipped := Flatten(def.Sections[0], res)

	// One missing datum never makes the whole section unusable.
	assert.Equal(t, []string{"q1", "q2", "q3", "q4"}, questionIDs(entries))
	require.Len(t, skipped, 2)
	assert.Equal(t, "ghost", skipped[0].Ref)
	assert.Equal(t, "missing-group", skipped[1].Ref)

	// Indexes stay contiguous despite the gaps.
	for i, e := range entries {
		assert.Equal(t, i+1, e.DisplayIndex)
	}
}

func TestFlattenSkipsInvariantViolations(t *testing.T) {
	bad := model.Question{
		ID:                 "bad",
		Kind:               model.QuestionKindSingleChoice,
		Options:            []string{"A", "B"},
		CorrectOptionIndex: intPtr(7), // out of bounds
	}
	noValue := model.Question{
		ID:   "noval",
		Kind: model.QuestionKindNumericEntry, // missing correct value
	}
	def := &model.AssessmentDefinition{
		ID: "d",
		Sections: []model.Section{{
			ID:                    "s",
			DurationSeconds:       10,
			StandaloneQuestionIDs: []string{"bad", "noval", "ok"},
		}},
		Questions: []model.Question{bad, noValue, singleChoiceQ("ok", 0)},
	}

	entries, skipped := Flatten(def.Sections[0], NewResolver(def))
	assert.Equal(t, []string{"ok"}, questionIDs(entries))
	require.Len(t, skipped, 2)
}

func TestCompileRejectsStructuralProblems(t *testing.T) {
	def := twoSectionDefinition()
	def.Sections[1].ID = "s1" // duplicate
	_, err := Compile(def)
	assert.ErrorIs(t, err, ErrMalformedDefinition)

	_, err = Compile(&model.AssessmentDefinition{ID: "empty"})
	assert.ErrorIs(t, err, ErrMalformedDefinition)

	// A section that would activate with no time on the clock is unusable.
	def = twoSectionDefinition()
	def.Sections[0].DurationSeconds = 0
	_, err = Compile(def)
	assert.ErrorIs(t, err, ErrMalformedDefinition)

	def = twoSectionDefinition()
	def.Sections[1].DurationSeconds = -30
	_, err = Compile(def)
	assert.ErrorIs(t, err, ErrMalformedDefinition)
}

func questionIDs(entries []FlatEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.QuestionID)
	}
	return ids
}
