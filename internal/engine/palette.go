package engine

// PaletteEntry is one cell of the question navigation palette.
type PaletteEntry struct {
	DisplayIndex int          `json:"display_index"`
	QuestionID   string       `json:"question_id"`
	Status       AnswerStatus `json:"status"`
	IsFocused    bool         `json:"is_focused"`
}

// ProjectPalette derives the palette for a flattened sequence from session
// state. Pure projection: statuses mirror the answer records exactly and at
// most one entry is focused.
func ProjectPalette(st State, entries []FlatEntry) []PaletteEntry {
	palette := make([]PaletteEntry, 0, len(entries))
	for _, e := range entries {
		status := StatusNotVisited
		if rec, ok := st.Records[e.QuestionID]; ok {
			status = rec.Status
		}
		palette = append(palette, PaletteEntry{
			DisplayIndex: e.DisplayIndex,
			QuestionID:   e.QuestionID,
			Status:       status,
			IsFocused:    st.FocusedID == e.QuestionID,
		})
	}
	return palette
}
