package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectPaletteMirrorsRecords(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)

	st, _, _ = Reduce(plan, st, SubmitAnswer{QuestionID: "q1", Value: "2"})
	st, _, _ = Reduce(plan, st, ToggleMark{QuestionID: "q2"})
	st, _, _ = Reduce(plan, st, SelectQuestion{QuestionID: "q3"})

	palette := ProjectPalette(st, plan.Sections[0].Entries)
	require.Len(t, palette, 4)

	assert.Equal(t, StatusAnswered, palette[0].Status)
	assert.Equal(t, StatusMarked, palette[1].Status)
	assert.Equal(t, StatusNotAnswered, palette[2].Status)
	assert.Equal(t, StatusNotVisited, palette[3].Status)

	// Display indexes come straight from the flattened sequence.
	for i, e := range palette {
		assert.Equal(t, i+1, e.DisplayIndex)
	}

	// At most one entry is focused.
	focused := 0
	for _, e := range palette {
		if e.IsFocused {
			focused++
			assert.Equal(t, "q3", e.QuestionID)
		}
	}
	assert.Equal(t, 1, focused)
}

func TestProjectPaletteIsPure(t *testing.T) {
	plan := mustCompile(twoSectionDefinition())
	st := activeState(t, plan)

	before := TakeSnapshot(st)
	_ = ProjectPalette(st, plan.Sections[0].Entries)
	assert.Equal(t, before, TakeSnapshot(st))
}
