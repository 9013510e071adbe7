package engine

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Snapshot is the JSON-serializable form of session state: primitive fields
// only. Derived data (flattened entries, timers) is deliberately excluded
// and recomputed on restore.
type Snapshot struct {
	AssessmentID        string           `json:"assessment_id"`
	Phase               Phase            `json:"phase"`
	CurrentSectionIndex int              `json:"current_section_index"`
	RemainingSeconds    int              `json:"remaining_seconds"`
	FocusedQuestionID   string           `json:"focused_question_id,omitempty"`
	Records             []RecordSnapshot `json:"records"`
	LockedSections      []string         `json:"locked_sections,omitempty"`
}

// RecordSnapshot is one answer record in snapshot form.
type RecordSnapshot struct {
	QuestionID string       `json:"question_id"`
	Status     AnswerStatus `json:"status"`
	Submitted  *string      `json:"submitted,omitempty"`
}

// TakeSnapshot converts state into its serializable form. Records and locked
// sections are sorted so equal states marshal to identical bytes.
func TakeSnapshot(st State) Snapshot {
	snap := Snapshot{
		AssessmentID:        st.AssessmentID,
		Phase:               st.Phase,
		CurrentSectionIndex: st.SectionIndex,
		RemainingSeconds:    st.RemainingSecs,
		FocusedQuestionID:   st.FocusedID,
		Records:             make([]RecordSnapshot, 0, len(st.Records)),
	}
	for qid, rec := range st.Records {
		snap.Records = append(snap.Records, RecordSnapshot{
			QuestionID: qid,
			Status:     rec.Status,
			Submitted:  rec.Submitted,
		})
	}
	sort.Slice(snap.Records, func(i, j int) bool {
		return snap.Records[i].QuestionID < snap.Records[j].QuestionID
	})
	for sid := range st.LockedSections {
		snap.LockedSections = append(snap.LockedSections, sid)
	}
	sort.Strings(snap.LockedSections)
	return snap
}

// RestoreState rebuilds session state from a snapshot.
func RestoreState(snap Snapshot) State {
	st := NewState(snap.AssessmentID)
	st.Phase = snap.Phase
	st.SectionIndex = snap.CurrentSectionIndex
	st.RemainingSecs = snap.RemainingSeconds
	st.FocusedID = snap.FocusedQuestionID
	for _, rec := range snap.Records {
		st.Records[rec.QuestionID] = AnswerRecord{
			Status:    rec.Status,
			Submitted: rec.Submitted,
		}
	}
	for _, sid := range snap.LockedSections {
		st.LockedSections[sid] = true
	}
	return st
}

// MarshalSnapshot encodes a snapshot for the persistence queue.
func MarshalSnapshot(snap Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// UnmarshalSnapshot decodes a persisted snapshot.
func UnmarshalSnapshot(raw []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
