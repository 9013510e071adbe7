package engine

// Phase is the session state machine phase.
type Phase string

const (
	PhaseIdle          Phase = "IDLE"
	PhaseSectionActive Phase = "SECTION_ACTIVE"
	PhaseSectionLocked Phase = "SECTION_LOCKED"
	PhaseCompleted     Phase = "COMPLETED"
)

// AnswerStatus is the per-question record lifecycle status. The mark flag is
// orthogonal to answered/not-answered, which is why it doubles the states.
type AnswerStatus string

const (
	StatusNotVisited     AnswerStatus = "NOT_VISITED"
	StatusNotAnswered    AnswerStatus = "NOT_ANSWERED"
	StatusAnswered       AnswerStatus = "ANSWERED"
	StatusMarked         AnswerStatus = "MARKED"
	StatusMarkedAnswered AnswerStatus = "MARKED_ANSWERED"
)

// AnswerRecord tracks one question's status and submitted value. Submitted
// holds the canonical string form: an option index for single-choice, the
// raw numeric text for numeric entry. Nil means no submission.
type AnswerRecord struct {
	Status    AnswerStatus `json:"status"`
	Submitted *string      `json:"submitted,omitempty"`
}

// answered reports whether the record carries a submitted value.
func (r AnswerRecord) answered() bool {
	return r.Submitted != nil
}

// marked reports whether the review flag is set.
func (r AnswerRecord) marked() bool {
	return r.Status == StatusMarked || r.Status == StatusMarkedAnswered
}

// State is the session state. It is a value type: the reducer copies it
// (cloning the maps) before mutating, so callers always hold immutable
// snapshots and replay stays deterministic.
type State struct {
	AssessmentID   string
	Phase          Phase
	SectionIndex   int
	RemainingSecs  int
	FocusedID      string
	Records        map[string]AnswerRecord
	LockedSections map[string]bool
}

// NewState returns the initial Idle state for an assessment.
func NewState(assessmentID string) State {
	return State{
		AssessmentID:   assessmentID,
		Phase:          PhaseIdle,
		SectionIndex:   -1,
		Records:        map[string]AnswerRecord{},
		LockedSections: map[string]bool{},
	}
}

// clone deep-copies the state so the previous value stays untouched.
func (s State) clone() State {
	out := s
	out.Records = make(map[string]AnswerRecord, len(s.Records))
	for k, v := range s.Records {
		out.Records[k] = v
	}
	out.LockedSections = make(map[string]bool, len(s.LockedSections))
	for k, v := range s.LockedSections {
		out.LockedSections[k] = v
	}
	return out
}
