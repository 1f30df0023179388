package transport

import "encoding/json"

// ─── Events (Backend → Console) ─────────────────────────────────────

const (
	// EventFeed carries the full list of feed entries.
	EventFeed = "FEED"
	// EventError carries a plain error string from the backend.
	EventError = "ERROR"
)

// Frame is one JSON text message on the backend socket.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
