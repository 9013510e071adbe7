package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing     Action = "ping"
	ActionTimeSync Action = "time_sync"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError          Event = "error"
	EventPong           Event = "pong"
	EventTimeSync       Event = "time_sync"
	EventSectionExpired Event = "section_expired"
	EventExamCompleted  Event = "exam_completed"
)

type PongResponse struct {
	Event Event `json:"event"`
}

// TimeSyncResponse carries the server-authoritative clock so clients can
// correct display drift.
type TimeSyncResponse struct {
	Event            Event  `json:"event"`
	SectionIndex     int    `json:"section_index"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Phase            string `json:"phase"`
}

// SectionExpiredEvent is pushed when a section's countdown reaches zero.
type SectionExpiredEvent struct {
	Event     Event  `json:"event"`
	SectionID string `json:"section_id"`
}

// ExamCompletedEvent is pushed when the attempt reaches its terminal state.
type ExamCompletedEvent struct {
	Event      Event   `json:"event"`
	TotalScore float64 `json:"total_score"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
