package engine

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTick = 10 * time.Millisecond

func newTestSession(t *testing.T, plan *Plan, hooks Hooks) *Session {
	t.Helper()
	s := NewSession(plan, testTick, DefaultMarkingScheme(), hooks, zerolog.Nop())
	t.Cleanup(s.Close)
	return s
}

func TestSessionRunsToExpiryAndScores(t *testing.T) {
	// End-to-end scenario A: submit the correct option early, then let the
	// clock run out. The exam completes itself and the score equals the
	// correct delta.
	plan := mustCompile(singleSectionDefinition())

	expired := make(chan string, 1)
	completed := make(chan ScoreResult, 1)
	s := newTestSession(t, plan, Hooks{
		OnSectionExpired: func(sectionID string) { expired <- sectionID },
		OnExamCompleted:  func(result ScoreResult) { completed <- result },
	})

	snap, err := s.Start()
	require.NoError(t, err)
	assert.Equal(t, PhaseSectionActive, snap.Phase)
	assert.Equal(t, 5, snap.RemainingSeconds)
	assert.Equal(t, "q1", snap.FocusedQuestionID)

	time.Sleep(testTick) // roughly t=1s in compressed time
	snap, err = s.SubmitAnswer("q1", "2")
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, StatusAnswered, snap.Records[0].Status)

	select {
	case sid := <-expired:
		assert.Equal(t, "only", sid)
	case <-time.After(20 * testTick):
		t.Fatal("section never expired")
	}

	select {
	case result := <-completed:
		assert.True(t, result.Completed)
		assert.InDelta(t, DefaultMarkingScheme().CorrectDelta, result.TotalScore, 1e-9)
	case <-time.After(20 * testTick):
		t.Fatal("exam never completed")
	}

	assert.True(t, s.Completed())
}

func TestSessionOverwriteCountsFinalValue(t *testing.T) {
	// End-to-end scenario B: wrong answer then correct answer before
	// expiry; only the final value counts.
	plan := mustCompile(singleSectionDefinition())

	completed := make(chan ScoreResult, 1)
	s := newTestSession(t, plan, Hooks{
		OnExamCompleted: func(result ScoreResult) { completed <- result },
	})

	_, err := s.Start()
	require.NoError(t, err)

	_, err = s.SubmitAnswer("q1", "0")
	require.NoError(t, err)
	snap, err := s.SubmitAnswer("q1", "2")
	require.NoError(t, err)
	assert.Equal(t, StatusAnswered, snap.Records[0].Status)

	select {
	case result := <-completed:
		assert.Equal(t, VerdictCorrect, result.PerQuestion["q1"])
		assert.InDelta(t, DefaultMarkingScheme().CorrectDelta, result.TotalScore, 1e-9)
	case <-time.After(20 * testTick):
		t.Fatal("exam never completed")
	}
}

func TestSessionTimerSuspendedWhileLocked(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())

	expired := make(chan string, 2)
	s := newTestSession(t, plan, Hooks{
		OnSectionExpired: func(sectionID string) { expired <- sectionID },
	})

	_, err := s.Start()
	require.NoError(t, err)

	// Expire the first section directly instead of waiting out its clock.
	snap, err := s.apply(ExpireSection{})
	require.NoError(t, err)
	require.Equal(t, PhaseSectionLocked, snap.Phase)
	<-expired

	// No ticks are delivered while locked: remaining time stays put.
	before := s.Snapshot()
	time.Sleep(5 * testTick)
	assert.Equal(t, before, s.Snapshot())

	snap, err = s.AdvanceSection()
	require.NoError(t, err)
	assert.Equal(t, PhaseSectionActive, snap.Phase)
	assert.Equal(t, 1, snap.CurrentSectionIndex)
	assert.Equal(t, 30, snap.RemainingSeconds)

	// The new section's countdown is live again.
	time.Sleep(3 * testTick)
	assert.Less(t, s.Snapshot().RemainingSeconds, 30)
}

func TestSessionSubmitExamCancelsTimer(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())

	var saved []Snapshot
	done := make(chan struct{})
	s := newTestSession(t, plan, Hooks{
		OnStateChanged: func(snap Snapshot) { saved = append(saved, snap) },
		OnExamCompleted: func(ScoreResult) {
			close(done)
		},
	})

	_, err := s.Start()
	require.NoError(t, err)

	_, err = s.SubmitExam()
	require.NoError(t, err)
	<-done

	final := s.Snapshot()
	assert.Equal(t, PhaseCompleted, final.Phase)

	// Autosave hook observed every applied event, ending in completion.
	require.NotEmpty(t, saved)
	assert.Equal(t, final, saved[len(saved)-1])

	// No stray timer keeps mutating a completed session.
	time.Sleep(3 * testTick)
	assert.Equal(t, final, s.Snapshot())

	// Closing twice is harmless.
	s.Close()
	s.Close()
}

func TestSessionResumeRestoresAndRestartsClock(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())

	first := newTestSession(t, plan, Hooks{})
	_, err := first.Start()
	require.NoError(t, err)
	_, err = first.SubmitAnswer("q1", "2")
	require.NoError(t, err)
	persisted := first.Snapshot()
	first.Close()

	second := newTestSession(t, plan, Hooks{})
	snap, err := second.Resume(persisted)
	require.NoError(t, err)
	assert.Equal(t, persisted.Records, snap.Records)
	assert.Equal(t, PhaseSectionActive, snap.Phase)

	// The restored section ticks again.
	time.Sleep(3 * testTick)
	assert.Less(t, second.Snapshot().RemainingSeconds, persisted.RemainingSeconds)

	// Resuming an already-running session is rejected.
	_, err = second.Resume(persisted)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSessionRejectionLeavesStateUntouched(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	s := newTestSession(t, plan, Hooks{})

	_, err := s.Start()
	require.NoError(t, err)
	before := s.Snapshot()

	_, err = s.AdvanceSection()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = s.SubmitAnswer("q1", "not-a-number")
	assert.ErrorIs(t, err, ErrInvalidAnswerFormat)
	_, err = s.Select("q5")
	assert.ErrorIs(t, err, ErrUnknownQuestion)

	after := s.Snapshot()
	// The clock may have ticked in between; everything else is unchanged.
	before.RemainingSeconds = 0
	after.RemainingSeconds = 0
	assert.Equal(t, before, after)
}
