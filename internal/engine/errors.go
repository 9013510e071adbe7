package engine

import "errors"

// Engine errors. Every rejected event is a no-op on state; these are returned
// as typed results, never panics, so callers can map them to API error codes.
var (
	// ErrDefinitionNotFound means the assessment id could not be resolved.
	// Fatal to session start; no partial session is created.
	ErrDefinitionNotFound = errors.New("assessment definition not found")

	// ErrInvalidTransition means the event is not valid in the current phase.
	ErrInvalidTransition = errors.New("event not valid in current phase")

	// ErrSectionLocked means a mutation targeted a locked section.
	ErrSectionLocked = errors.New("section is locked")

	// ErrUnknownQuestion means the question id is not part of the active
	// section's flattened sequence.
	ErrUnknownQuestion = errors.New("question not in active section")

	// ErrInvalidAnswerFormat means the submitted value does not match the
	// question kind's expected shape. Rejected, never coerced.
	ErrInvalidAnswerFormat = errors.New("answer value does not match question kind")

	// ErrMalformedDefinition means the definition is unusable as a whole
	// (no sections, or duplicate section ids).
	ErrMalformedDefinition = errors.New("malformed assessment definition")
)
