package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Hooks are the outbound callbacks a session fires toward its surrounding
// shell. All hooks are invoked outside the session lock, after the state
// transition has fully committed.
type Hooks struct {
	OnSectionExpired func(sectionID string)
	OnExamCompleted  func(result ScoreResult)
	// OnStateChanged fires after every applied event with the fresh
	// snapshot; the shell uses it for autosave.
	OnStateChanged func(snap Snapshot)
}

// Session runs one attempt: it owns the state exclusively, serializes event
// application behind a mutex, and holds at most one live countdown at any
// instant. User events and timer ticks are the only producers; both go
// through apply, so tick-to-zero expiry can never interleave with a user
// action.
type Session struct {
	plan     *Plan
	scheme   MarkingScheme
	interval time.Duration
	hooks    Hooks
	log      zerolog.Logger

	mu    sync.Mutex
	state State
	timer *countdown
}

// NewSession creates an idle session for a compiled plan. interval is the
// real-time tick cadence (1s in production, shorter in tests).
func NewSession(plan *Plan, interval time.Duration, scheme MarkingScheme, hooks Hooks, log zerolog.Logger) *Session {
	return &Session{
		plan:     plan,
		scheme:   scheme,
		interval: interval,
		hooks:    hooks,
		log:      log.With().Str("component", "engine_session").Str("assessment_id", plan.AssessmentID).Logger(),
		state:    NewState(plan.AssessmentID),
	}
}

// Start loads the first section and starts its countdown.
func (s *Session) Start() (Snapshot, error) {
	return s.apply(LoadSection{Index: 0})
}

// Resume restores a persisted snapshot and, if a section was active,
// restarts its countdown from the persisted remaining time.
func (s *Session) Resume(snap Snapshot) (Snapshot, error) {
	if snap.AssessmentID != s.plan.AssessmentID {
		return Snapshot{}, fmt.Errorf("snapshot is for assessment %s: %w", snap.AssessmentID, ErrInvalidTransition)
	}
	if snap.CurrentSectionIndex >= len(s.plan.Sections) {
		return Snapshot{}, fmt.Errorf("snapshot section index %d out of range: %w", snap.CurrentSectionIndex, ErrInvalidTransition)
	}

	s.mu.Lock()
	if s.state.Phase != PhaseIdle {
		s.mu.Unlock()
		return Snapshot{}, ErrInvalidTransition
	}
	s.state = RestoreState(snap)
	s.syncTimerLocked()
	out := TakeSnapshot(s.state)
	s.mu.Unlock()

	s.log.Info().Int("section_index", out.CurrentSectionIndex).Msg("Session resumed from snapshot")
	return out, nil
}

// Select focuses a question in the active section.
func (s *Session) Select(questionID string) (Snapshot, error) {
	return s.apply(SelectQuestion{QuestionID: questionID})
}

// SubmitAnswer submits or overwrites an answer value.
func (s *Session) SubmitAnswer(questionID, value string) (Snapshot, error) {
	return s.apply(SubmitAnswer{QuestionID: questionID, Value: value})
}

// ToggleMark flips the review flag on a question.
func (s *Session) ToggleMark(questionID string) (Snapshot, error) {
	return s.apply(ToggleMark{QuestionID: questionID})
}

// AdvanceSection moves from a locked section into the next one.
func (s *Session) AdvanceSection() (Snapshot, error) {
	return s.apply(AdvanceSection{})
}

// SubmitExam locks everything and completes the attempt.
func (s *Session) SubmitExam() (Snapshot, error) {
	return s.apply(SubmitExam{})
}

// Snapshot returns the current read-only snapshot.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TakeSnapshot(s.state)
}

// Palette projects the navigation palette for the current section.
func (s *Session) Palette() []PaletteEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.SectionIndex < 0 || s.state.SectionIndex >= len(s.plan.Sections) {
		return []PaletteEntry{}
	}
	return ProjectPalette(s.state, s.plan.Sections[s.state.SectionIndex].Entries)
}

// Score computes the score for the current state. Before completion this is
// a progress preview with unlocked sections marked provisional.
func (s *Session) Score() ScoreResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Score(s.plan, s.state, s.scheme)
}

// Completed reports whether the session reached its terminal phase.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Phase == PhaseCompleted
}

// Close cancels any live countdown. Idempotent; the session state itself is
// left as-is so a final snapshot can still be read.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Cancel()
		s.timer = nil
	}
}

// apply runs one event through the reducer under the session lock, commits
// the next state, reconciles the countdown with the new phase, and fires
// hooks after unlocking. Rejected events leave state and timer untouched.
func (s *Session) apply(ev Event) (Snapshot, error) {
	s.mu.Lock()

	next, effects, err := Reduce(s.plan, s.state, ev)
	if err != nil {
		snap := TakeSnapshot(s.state)
		s.mu.Unlock()
		return snap, err
	}

	s.state = next
	s.syncTimerLocked()
	snap := TakeSnapshot(s.state)

	// Score while still holding the lock so the completion hook sees the
	// exact terminal state, then deliver everything outside it.
	var completedScore *ScoreResult
	for _, eff := range effects {
		if _, ok := eff.(ExamCompletedEffect); ok {
			result := Score(s.plan, s.state, s.scheme)
			completedScore = &result
		}
	}
	s.mu.Unlock()

	for _, eff := range effects {
		switch e := eff.(type) {
		case SectionExpiredEffect:
			s.log.Info().Str("section_id", e.SectionID).Msg("Section expired")
			if s.hooks.OnSectionExpired != nil {
				s.hooks.OnSectionExpired(e.SectionID)
			}
		case ExamCompletedEffect:
			s.log.Info().Float64("total_score", completedScore.TotalScore).Msg("Exam completed")
			if s.hooks.OnExamCompleted != nil {
				s.hooks.OnExamCompleted(*completedScore)
			}
		}
	}
	if s.hooks.OnStateChanged != nil {
		s.hooks.OnStateChanged(snap)
	}

	return snap, nil
}

// syncTimerLocked reconciles the single countdown handle with the current
// phase: exactly one live countdown while a section is active, none
// otherwise. Callers must hold s.mu.
func (s *Session) syncTimerLocked() {
	if s.state.Phase == PhaseSectionActive {
		if s.timer == nil {
			s.timer = startCountdown(s.interval, s.tickFor(s.state.SectionIndex))
		}
		return
	}
	if s.timer != nil {
		s.timer.Cancel()
		s.timer = nil
	}
}

// tickFor binds a countdown to the section it was started for. Ticks carry
// that index so one blocked in apply while the user expires and advances the
// section cannot decrement the next section's clock; the reducer rejects it
// and the stale goroutine stops. Returning false stops the countdown once
// the section is no longer active.
func (s *Session) tickFor(sectionIndex int) func() bool {
	return func() bool {
		snap, err := s.apply(Tick{SectionIndex: sectionIndex})
		if err != nil {
			return false
		}
		return snap.Phase == PhaseSectionActive
	}
}
