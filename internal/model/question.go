package model

// QuestionKind enumerates supported answer formats.
type QuestionKind string

const (
	QuestionKindSingleChoice QuestionKind = "SINGLE_CHOICE"
	QuestionKindNumericEntry QuestionKind = "NUMERIC_ENTRY"
)

// Question is a single displayable question. SingleChoice requires Options
// non-empty and CorrectOptionIndex within bounds; NumericEntry requires
// CorrectValue.
type Question struct {
	ID                 string       `json:"id"`
	Kind               QuestionKind `json:"kind"`
	Prompt             string       `json:"prompt"`
	Options            []string     `json:"options,omitempty"`
	CorrectOptionIndex *int         `json:"correct_option_index,omitempty"`
	CorrectValue       *float64     `json:"correct_value,omitempty"`
	Solution           string       `json:"solution,omitempty"`
}

// QuestionGroup is a set of sub-questions sharing common introductory
// content. Sub-questions are owned exclusively by their group and never
// appear as standalone questions elsewhere.
type QuestionGroup struct {
	ID            string     `json:"id"`
	CommonContent string     `json:"common_content"`
	SubQuestions  []Question `json:"sub_questions"`
}

// PaperEntry is one candidate-facing question in display order, stripped of
// answer keys and solutions.
type PaperEntry struct {
	DisplayIndex  int          `json:"display_index"`
	QuestionID    string       `json:"question_id"`
	GroupID       string       `json:"group_id,omitempty"`
	CommonContent string       `json:"common_content,omitempty"`
	Kind          QuestionKind `json:"kind"`
	Prompt        string       `json:"prompt"`
	Options       []string     `json:"options,omitempty"`
}

// PaperSection is a candidate-facing section with entries already flattened.
type PaperSection struct {
	ID              string          `json:"id"`
	Category        SectionCategory `json:"category"`
	Title           string          `json:"title"`
	DurationSeconds int             `json:"duration_seconds"`
	Entries         []PaperEntry    `json:"entries"`
}

// Paper is the sanitized assessment sent to candidates.
type Paper struct {
	AssessmentID         string         `json:"assessment_id"`
	Title                string         `json:"title"`
	TotalDurationSeconds int            `json:"total_duration_seconds"`
	Sections             []PaperSection `json:"sections"`
}
