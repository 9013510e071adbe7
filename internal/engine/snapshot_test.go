package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)
	st, _, _ = Reduce(plan, st, SubmitAnswer{QuestionID: "q1", Value: "2"})
	st, _, _ = Reduce(plan, st, ToggleMark{QuestionID: "q2"})
	st, _, _ = Reduce(plan, st, ExpireSection{})

	snap := TakeSnapshot(st)
	raw, err := MarshalSnapshot(snap)
	require.NoError(t, err)

	decoded, err := UnmarshalSnapshot(raw)
	require.NoError(t, err)
	assert.Equal(t, snap, decoded)

	restored := RestoreState(decoded)
	assert.Equal(t, snap, TakeSnapshot(restored))
	assert.Equal(t, PhaseSectionLocked, restored.Phase)
	assert.True(t, restored.LockedSections["s1"])
	assert.Equal(t, "2", *restored.Records["q1"].Submitted)
}

func TestSnapshotIsDeterministic(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)
	st, _, _ = Reduce(plan, st, SubmitAnswer{QuestionID: "q1", Value: "2"})

	first, err := MarshalSnapshot(TakeSnapshot(st))
	require.NoError(t, err)
	second, err := MarshalSnapshot(TakeSnapshot(st))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestUnmarshalSnapshotRejectsGarbage(t *testing.T) {
	_, err := UnmarshalSnapshot([]byte("{not json"))
	assert.Error(t, err)
}
