package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSectionInitializesRecords(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := NewState(plan.AssessmentID)

	st, effects, err := Reduce(plan, st, LoadSection{Index: 0})
	require.NoError(t, err)
	assert.Empty(t, effects)

	assert.Equal(t, PhaseSectionActive, st.Phase)
	assert.Equal(t, 0, st.SectionIndex)
	assert.Equal(t, 60, st.RemainingSecs)
	assert.Equal(t, "q1", st.FocusedID)

	require.Len(t, st.Records, 4)
	for _, qid := range []string{"q1", "q2", "q3", "q4"} {
		assert.Equal(t, StatusNotVisited, st.Records[qid].Status)
	}
}

func TestLoadSectionOnlyFromIdleOrPrecedingLock(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := NewState(plan.AssessmentID)

	_, _, err := Reduce(plan, st, LoadSection{Index: 1})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	st, _, err = Reduce(plan, st, LoadSection{Index: 0})
	require.NoError(t, err)

	// Re-loading the active section is invalid too.
	_, _, err = Reduce(plan, st, LoadSection{Index: 0})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSelectAdvancesNotVisited(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)

	st, _, err := Reduce(plan, st, SelectQuestion{QuestionID: "q3"})
	require.NoError(t, err)
	assert.Equal(t, "q3", st.FocusedID)
	assert.Equal(t, StatusNotAnswered, st.Records["q3"].Status)

	// Selecting again keeps NotAnswered; it never regresses.
	st, _, err = Reduce(plan, st, SelectQuestion{QuestionID: "q3"})
	require.NoError(t, err)
	assert.Equal(t, StatusNotAnswered, st.Records["q3"].Status)

	_, _, err = Reduce(plan, st, SelectQuestion{QuestionID: "q5"})
	assert.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestSubmitAnswerValidation(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)

	// Option index out of range for single-choice.
	_, _, err := Reduce(plan, st, SubmitAnswer{QuestionID: "q1", Value: "9"})
	assert.ErrorIs(t, err, ErrInvalidAnswerFormat)

	// Non-numeric text for single-choice.
	_, _, err = Reduce(plan, st, SubmitAnswer{QuestionID: "q1", Value: "C"})
	assert.ErrorIs(t, err, ErrInvalidAnswerFormat)

	// Non-numeric text for numeric entry (q4 is in the group).
	_, _, err = Reduce(plan, st, SubmitAnswer{QuestionID: "q4", Value: "two point five"})
	assert.ErrorIs(t, err, ErrInvalidAnswerFormat)

	// Valid submissions.
	st, _, err = Reduce(plan, st, SubmitAnswer{QuestionID: "q1", Value: "2"})
	require.NoError(t, err)
	assert.Equal(t, StatusAnswered, st.Records["q1"].Status)
	require.NotNil(t, st.Records["q1"].Submitted)
	assert.Equal(t, "2", *st.Records["q1"].Submitted)

	st, _, err = Reduce(plan, st, SubmitAnswer{QuestionID: "q4", Value: "2.5"})
	require.NoError(t, err)
	assert.Equal(t, StatusAnswered, st.Records["q4"].Status)
}

func TestResubmissionIsIdempotentAndOverwrites(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)

	first, _, err := Reduce(plan, st, SubmitAnswer{QuestionID: "q1", Value: "2"})
	require.NoError(t, err)

	// Same value again: state after is identical to state after the first.
	second, _, err := Reduce(plan, first, SubmitAnswer{QuestionID: "q1", Value: "2"})
	require.NoError(t, err)
	assert.Equal(t, TakeSnapshot(first), TakeSnapshot(second))

	// Different value overwrites; only the final value survives.
	third, _, err := Reduce(plan, second, SubmitAnswer{QuestionID: "q1", Value: "0"})
	require.NoError(t, err)
	assert.Equal(t, "0", *third.Records["q1"].Submitted)
	assert.Equal(t, StatusAnswered, third.Records["q1"].Status)
}

func TestToggleMarkTransitions(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)

	// NotVisited -> Marked -> NotAnswered (unmarking counts as visited).
	st, _, err := Reduce(plan, st, ToggleMark{QuestionID: "q2"})
	require.NoError(t, err)
	assert.Equal(t, StatusMarked, st.Records["q2"].Status)

	st, _, err = Reduce(plan, st, ToggleMark{QuestionID: "q2"})
	require.NoError(t, err)
	assert.Equal(t, StatusNotAnswered, st.Records["q2"].Status)

	// Answered <-> MarkedAnswered, keeping the submitted value.
	st, _, _ = Reduce(plan, st, SubmitAnswer{QuestionID: "q2", Value: "0"})
	st, _, err = Reduce(plan, st, ToggleMark{QuestionID: "q2"})
	require.NoError(t, err)
	assert.Equal(t, StatusMarkedAnswered, st.Records["q2"].Status)
	assert.Equal(t, "0", *st.Records["q2"].Submitted)

	// Submitting while marked keeps the mark.
	st, _, err = Reduce(plan, st, SubmitAnswer{QuestionID: "q2", Value: "1"})
	require.NoError(t, err)
	assert.Equal(t, StatusMarkedAnswered, st.Records["q2"].Status)

	st, _, err = Reduce(plan, st, ToggleMark{QuestionID: "q2"})
	require.NoError(t, err)
	assert.Equal(t, StatusAnswered, st.Records["q2"].Status)
}

func TestTickDecrementsAndFusesExpiry(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)

	st, effects, err := Reduce(plan, st, Tick{})
	require.NoError(t, err)
	assert.Empty(t, effects)
	assert.Equal(t, 59, st.RemainingSecs)

	// Run the clock down to 1 second.
	for st.RemainingSecs > 1 {
		st, _, err = Reduce(plan, st, Tick{})
		require.NoError(t, err)
	}

	// The tick that reaches zero locks the section in the same reduction:
	// there is no state with zero remaining and an unlocked section.
	st, effects, err = Reduce(plan, st, Tick{})
	require.NoError(t, err)
	assert.Equal(t, 0, st.RemainingSecs)
	assert.Equal(t, PhaseSectionLocked, st.Phase)
	assert.True(t, st.LockedSections["s1"])
	require.Len(t, effects, 1)
	assert.Equal(t, SectionExpiredEffect{SectionID: "s1"}, effects[0])
}

func TestStaleTickForPreviousSectionIsRejected(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)

	st, _, err := Reduce(plan, st, ExpireSection{})
	require.NoError(t, err)
	st, _, err = Reduce(plan, st, AdvanceSection{})
	require.NoError(t, err)
	require.Equal(t, 1, st.SectionIndex)

	before := TakeSnapshot(st)

	// A tick scheduled for section 0 that lands after the advance must not
	// shave a second off section 1's clock.
	_, _, err = Reduce(plan, st, Tick{SectionIndex: 0})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, before, TakeSnapshot(st))

	st, _, err = Reduce(plan, st, Tick{SectionIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, 29, st.RemainingSecs)
}

func TestRemainingNeverNegative(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)

	prev := st.RemainingSecs
	for st.Phase == PhaseSectionActive {
		next, _, err := Reduce(plan, st, Tick{})
		require.NoError(t, err)
		assert.LessOrEqual(t, next.RemainingSecs, prev)
		assert.GreaterOrEqual(t, next.RemainingSecs, 0)
		prev = next.RemainingSecs
		st = next
	}
}

func TestLockedSectionRejectsMutations(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)

	st, _, err := Reduce(plan, st, ExpireSection{})
	require.NoError(t, err)
	require.Equal(t, PhaseSectionLocked, st.Phase)

	before := TakeSnapshot(st)

	_, _, err = Reduce(plan, st, SubmitAnswer{QuestionID: "q1", Value: "2"})
	assert.ErrorIs(t, err, ErrSectionLocked)
	_, _, err = Reduce(plan, st, ToggleMark{QuestionID: "q1"})
	assert.ErrorIs(t, err, ErrSectionLocked)

	// Rejection is a no-op on state.
	assert.Equal(t, before, TakeSnapshot(st))

	// After advancing, section 1 questions stay frozen behind the lock.
	st, _, err = Reduce(plan, st, AdvanceSection{})
	require.NoError(t, err)
	require.Equal(t, PhaseSectionActive, st.Phase)
	_, _, err = Reduce(plan, st, SubmitAnswer{QuestionID: "q1", Value: "2"})
	assert.ErrorIs(t, err, ErrSectionLocked)
}

func TestAdvanceWhileActiveIsRejected(t *testing.T) {
	// End-to-end scenario E.
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)
	before := TakeSnapshot(st)

	_, _, err := Reduce(plan, st, AdvanceSection{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, before, TakeSnapshot(st))
}

func TestExpiryOfLastSectionCompletesExam(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)

	st, _, _ = Reduce(plan, st, ExpireSection{})
	st, _, _ = Reduce(plan, st, AdvanceSection{})
	require.Equal(t, 1, st.SectionIndex)

	st, effects, err := Reduce(plan, st, ExpireSection{})
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, st.Phase)
	require.Len(t, effects, 2)
	assert.Equal(t, SectionExpiredEffect{SectionID: "s2"}, effects[0])
	assert.Equal(t, ExamCompletedEffect{}, effects[1])

	// Advancing past the last section is impossible.
	_, _, err = Reduce(plan, st, AdvanceSection{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSubmitExamLocksEverything(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)

	st, effects, err := Reduce(plan, st, SubmitExam{})
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, st.Phase)
	assert.True(t, st.LockedSections["s1"])
	assert.True(t, st.LockedSections["s2"])

	// Active section expired first, then completion.
	require.Len(t, effects, 2)
	assert.Equal(t, SectionExpiredEffect{SectionID: "s1"}, effects[0])
	assert.Equal(t, ExamCompletedEffect{}, effects[1])

	// Re-submitting a completed exam is an idempotent no-op.
	again, effects, err := Reduce(plan, st, SubmitExam{})
	require.NoError(t, err)
	assert.Empty(t, effects)
	assert.Equal(t, TakeSnapshot(st), TakeSnapshot(again))
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)
	before := TakeSnapshot(st)

	_, _, err := Reduce(plan, st, SubmitAnswer{QuestionID: "q1", Value: "2"})
	require.NoError(t, err)
	assert.Equal(t, before, TakeSnapshot(st))
}

func activeState(t *testing.T, plan *Plan) State {
	t.Helper()
	st, _, err := Reduce(plan, NewState(plan.AssessmentID), LoadSection{Index: 0})
	require.NoError(t, err)
	return st
}
