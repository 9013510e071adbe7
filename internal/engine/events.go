package engine

// Event is a discrete input to the reducer. User interaction and the
// countdown timer are the only two producers; both funnel into one
// serialized application path, so no two events ever race on the same state.
type Event interface {
	eventName() string
}

// LoadSection activates section Index: resets the clock to the section's
// duration, initializes never-seen records and focuses the first entry.
type LoadSection struct{ Index int }

// Tick decrements the active section's clock by one second. Reaching zero
// expires the section within the same reduction — tick and expiry are one
// indivisible step, never two interleavable events. SectionIndex is the
// section the tick was scheduled for; a tick that arrives after the machine
// moved on is rejected instead of shaving a second off the wrong clock.
type Tick struct{ SectionIndex int }

// SelectQuestion focuses a question in the active section.
type SelectQuestion struct{ QuestionID string }

// SubmitAnswer submits or overwrites an answer value.
type SubmitAnswer struct {
	QuestionID string
	Value      string
}

// ToggleMark flips the review flag on a question.
type ToggleMark struct{ QuestionID string }

// ExpireSection locks the active section. Emitted internally by Tick at
// zero; also accepted externally for forced expiry.
type ExpireSection struct{}

// AdvanceSection moves from a locked section to the next one.
type AdvanceSection struct{}

// SubmitExam locks everything and completes the exam.
type SubmitExam struct{}

func (LoadSection) eventName() string    { return "load_section" }
func (Tick) eventName() string           { return "tick" }
func (SelectQuestion) eventName() string { return "select_question" }
func (SubmitAnswer) eventName() string   { return "submit_answer" }
func (ToggleMark) eventName() string     { return "toggle_mark" }
func (ExpireSection) eventName() string  { return "expire_section" }
func (AdvanceSection) eventName() string { return "advance_section" }
func (SubmitExam) eventName() string     { return "submit_exam" }

// Effect is a side-effect request produced by a reduction. The reducer never
// performs effects itself; the session layer translates them into timer
// control and outbound hooks.
type Effect interface {
	effectName() string
}

// SectionExpiredEffect signals that a section was just locked by expiry.
type SectionExpiredEffect struct{ SectionID string }

// ExamCompletedEffect signals the terminal transition.
type ExamCompletedEffect struct{}

func (SectionExpiredEffect) effectName() string { return "section_expired" }
func (ExamCompletedEffect) effectName() string  { return "exam_completed" }
