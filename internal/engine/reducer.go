package engine

import (
	"strconv"
	"strings"

	"github.com/prepstack/mockexam-backend/internal/model"
)

// Reduce applies one event to a state and returns the next state plus any
// effects. It is pure over (plan, state, event): no clocks, no I/O, no
// mutation of the input state. A rejected event returns the input state
// unchanged alongside the error, so rejection is always a no-op.
func Reduce(p *Plan, st State, ev Event) (State, []Effect, error) {
	switch e := ev.(type) {
	case LoadSection:
		return reduceLoadSection(p, st, e.Index)
	case Tick:
		return reduceTick(p, st, e.SectionIndex)
	case SelectQuestion:
		return reduceSelect(p, st, e.QuestionID)
	case SubmitAnswer:
		return reduceSubmit(p, st, e.QuestionID, e.Value)
	case ToggleMark:
		return reduceToggleMark(p, st, e.QuestionID)
	case ExpireSection:
		if st.Phase != PhaseSectionActive {
			return st, nil, ErrInvalidTransition
		}
		next, effects := expireCurrent(p, st.clone())
		return next, effects, nil
	case AdvanceSection:
		return reduceAdvance(p, st)
	case SubmitExam:
		return reduceSubmitExam(p, st)
	default:
		return st, nil, ErrInvalidTransition
	}
}

func reduceLoadSection(p *Plan, st State, idx int) (State, []Effect, error) {
	if idx < 0 || idx >= len(p.Sections) {
		return st, nil, ErrInvalidTransition
	}

	// Valid only from Idle (first section) or from the lock of the
	// immediately preceding section.
	switch st.Phase {
	case PhaseIdle:
		if idx != 0 {
			return st, nil, ErrInvalidTransition
		}
	case PhaseSectionLocked:
		if idx != st.SectionIndex+1 {
			return st, nil, ErrInvalidTransition
		}
	default:
		return st, nil, ErrInvalidTransition
	}

	next := st.clone()
	sp := &p.Sections[idx]

	next.Phase = PhaseSectionActive
	next.SectionIndex = idx
	next.RemainingSecs = sp.DurationSeconds
	next.FocusedID = ""

	// Records are created lazily, the first time a question is flattened
	// into view.
	for _, entry := range sp.Entries {
		if _, seen := next.Records[entry.QuestionID]; !seen {
			next.Records[entry.QuestionID] = AnswerRecord{Status: StatusNotVisited}
		}
	}
	if len(sp.Entries) > 0 {
		next.FocusedID = sp.Entries[0].QuestionID
	}

	return next, nil, nil
}

func reduceTick(p *Plan, st State, idx int) (State, []Effect, error) {
	if st.Phase != PhaseSectionActive {
		return st, nil, ErrInvalidTransition
	}
	if idx != st.SectionIndex {
		// Stale tick from a countdown whose section is no longer current.
		return st, nil, ErrInvalidTransition
	}

	next := st.clone()
	next.RemainingSecs--
	if next.RemainingSecs > 0 {
		return next, nil, nil
	}
	next.RemainingSecs = 0

	// Hitting zero expires the section within the same reduction. There is
	// no observable state with zero remaining and a still-writable section.
	next, effects := expireCurrent(p, next)
	return next, effects, nil
}

func reduceSelect(p *Plan, st State, qid string) (State, []Effect, error) {
	if st.Phase != PhaseSectionActive {
		return st, nil, ErrInvalidTransition
	}
	if !inActiveSection(p, st, qid) {
		return st, nil, ErrUnknownQuestion
	}

	next := st.clone()
	next.FocusedID = qid

	rec := next.Records[qid]
	if rec.Status == StatusNotVisited {
		rec.Status = StatusNotAnswered
		next.Records[qid] = rec
	}
	return next, nil, nil
}

func reduceSubmit(p *Plan, st State, qid, value string) (State, []Effect, error) {
	if st.Phase != PhaseSectionActive {
		if targetLocked(p, st, qid) {
			return st, nil, ErrSectionLocked
		}
		return st, nil, ErrInvalidTransition
	}
	if !inActiveSection(p, st, qid) {
		if targetLocked(p, st, qid) {
			return st, nil, ErrSectionLocked
		}
		return st, nil, ErrUnknownQuestion
	}

	sp := &p.Sections[st.SectionIndex]
	q, _ := sp.Question(qid)

	canonical, err := canonicalAnswer(q, value)
	if err != nil {
		return st, nil, err
	}

	next := st.clone()
	rec := next.Records[qid]
	rec.Submitted = &canonical
	if rec.marked() {
		rec.Status = StatusMarkedAnswered
	} else {
		rec.Status = StatusAnswered
	}
	next.Records[qid] = rec
	return next, nil, nil
}

func reduceToggleMark(p *Plan, st State, qid string) (State, []Effect, error) {
	if st.Phase != PhaseSectionActive {
		if targetLocked(p, st, qid) {
			return st, nil, ErrSectionLocked
		}
		return st, nil, ErrInvalidTransition
	}
	if !inActiveSection(p, st, qid) {
		if targetLocked(p, st, qid) {
			return st, nil, ErrSectionLocked
		}
		return st, nil, ErrUnknownQuestion
	}

	next := st.clone()
	rec := next.Records[qid]
	switch rec.Status {
	case StatusNotVisited, StatusNotAnswered:
		rec.Status = StatusMarked
	case StatusMarked:
		rec.Status = StatusNotAnswered
	case StatusAnswered:
		rec.Status = StatusMarkedAnswered
	case StatusMarkedAnswered:
		rec.Status = StatusAnswered
	}
	next.Records[qid] = rec
	return next, nil, nil
}

func reduceAdvance(p *Plan, st State) (State, []Effect, error) {
	if st.Phase != PhaseSectionLocked {
		return st, nil, ErrInvalidTransition
	}
	if st.SectionIndex >= len(p.Sections)-1 {
		return st, nil, ErrInvalidTransition
	}
	return reduceLoadSection(p, st, st.SectionIndex+1)
}

func reduceSubmitExam(p *Plan, st State) (State, []Effect, error) {
	// Submitting an already-completed exam is an idempotent no-op.
	if st.Phase == PhaseCompleted {
		return st, nil, nil
	}

	next := st.clone()
	var effects []Effect

	if next.Phase == PhaseSectionActive {
		sp := &p.Sections[next.SectionIndex]
		next.LockedSections[sp.ID] = true
		effects = append(effects, SectionExpiredEffect{SectionID: sp.ID})
	}
	for i := range p.Sections {
		next.LockedSections[p.Sections[i].ID] = true
	}
	next.Phase = PhaseCompleted
	effects = append(effects, ExamCompletedEffect{})
	return next, effects, nil
}

// expireCurrent locks the active section and either parks the machine in
// SectionLocked or, for the last section, completes the exam outright.
// Callers pass an already-cloned state.
func expireCurrent(p *Plan, next State) (State, []Effect) {
	sp := &p.Sections[next.SectionIndex]
	next.LockedSections[sp.ID] = true
	effects := []Effect{SectionExpiredEffect{SectionID: sp.ID}}

	if next.SectionIndex == len(p.Sections)-1 {
		// Last section: expiry implies exam submission.
		for i := range p.Sections {
			next.LockedSections[p.Sections[i].ID] = true
		}
		next.Phase = PhaseCompleted
		effects = append(effects, ExamCompletedEffect{})
		return next, effects
	}

	next.Phase = PhaseSectionLocked
	return next, effects
}

// inActiveSection reports whether qid is part of the active section's
// flattened sequence.
func inActiveSection(p *Plan, st State, qid string) bool {
	if st.SectionIndex < 0 || st.SectionIndex >= len(p.Sections) {
		return false
	}
	_, ok := p.Sections[st.SectionIndex].Question(qid)
	return ok
}

// targetLocked reports whether qid belongs to any locked section, so the
// caller can distinguish SectionLocked from a plain invalid target.
func targetLocked(p *Plan, st State, qid string) bool {
	for i := range p.Sections {
		if !st.LockedSections[p.Sections[i].ID] {
			continue
		}
		if _, ok := p.Sections[i].Question(qid); ok {
			return true
		}
	}
	return false
}

// canonicalAnswer validates a raw value against the question kind and
// returns its canonical stored form. Parsing failures are rejected, never
// silently coerced.
func canonicalAnswer(q *model.Question, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", ErrInvalidAnswerFormat
	}

	switch q.Kind {
	case model.QuestionKindSingleChoice:
		idx, err := strconv.Atoi(trimmed)
		if err != nil || idx < 0 || idx >= len(q.Options) {
			return "", ErrInvalidAnswerFormat
		}
		return strconv.Itoa(idx), nil
	case model.QuestionKindNumericEntry:
		if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
			return "", ErrInvalidAnswerFormat
		}
		return trimmed, nil
	default:
		return "", ErrInvalidAnswerFormat
	}
}
