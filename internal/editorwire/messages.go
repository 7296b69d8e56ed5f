// Package editorwire defines the WebSocket protocol for metadata spec
// editing sessions.
package editorwire

import (
	"encoding/json"

	"github.com/adminforge/adminforge/internal/metaspec"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"` // "load", "new", "name", "add", "remove", "duplicate", "replace_type", "reorder", "set", "expand", "collapse", "submit", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// LoadData is the payload for "load" messages.
type LoadData struct {
	SpecID string `json:"spec_id"`
}

// NewData is the payload for "new" messages.
type NewData struct {
	Name string `json:"name"`
}

// NameData is the payload for "name" messages.
type NameData struct {
	Name string `json:"name"`
}

// AddData is the payload for "add" messages. Path addresses the level the
// new property is appended to; the empty path is the root level.
type AddData struct {
	Path []int `json:"path"`
}

// NodeData is the payload for "remove", "duplicate", "expand" and
// "collapse" messages. Index is ignored by "collapse".
type NodeData struct {
	Path  []int `json:"path"`
	Index int   `json:"index"`
}

// ReplaceTypeData is the payload for "replace_type" messages.
type ReplaceTypeData struct {
	Path  []int                 `json:"path"`
	Index int                   `json:"index"`
	Type  metaspec.PropertyType `json:"newType"`
}

// ReorderData is the payload for "reorder" messages.
type ReorderData struct {
	Path []int `json:"path"`
	From int   `json:"from"`
	To   int   `json:"to"`
}

// SetData is the payload for "set" messages. Only present fields are
// applied; the property type is never changed this way.
type SetData struct {
	Path         []int   `json:"path"`
	Index        int     `json:"index"`
	Name         *string `json:"name,omitempty"`
	DisplayName  *string `json:"displayName,omitempty"`
	Required     *bool   `json:"required,omitempty"`
	Placeholder  *string `json:"placeholder,omitempty"`
	DefaultValue *string `json:"defaultValue,omitempty"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "session", "state", "saved", "invalid", "error", "pong"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// StateData carries the full working tree after every accepted mutation.
type StateData struct {
	Spec     *metaspec.Spec `json:"spec"`
	Expanded map[string]int `json:"expanded"`
	Invalid  bool           `json:"invalid"`
}

// SavedData carries the persisted spec after a successful submit.
type SavedData struct {
	Spec *metaspec.Spec `json:"spec"`
}

// InvalidData carries validation failures from a blocked submit.
type InvalidData struct {
	Errors []string `json:"errors"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SessionData carries session information.
type SessionData struct {
	SessionID string `json:"session_id"`
}
