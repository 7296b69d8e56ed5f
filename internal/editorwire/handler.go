package editorwire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/log"

	"github.com/adminforge/adminforge/internal/event"
	"github.com/adminforge/adminforge/internal/metaspec"
)

// Handler manages WebSocket connections for spec editing. Each connection
// gets its own session and edits a private working copy; nothing is
// written to the store until a submit passes validation.
type Handler struct {
	sessions *Manager
	store    metaspec.Store
	recorder event.Recorder
}

// NewHandler creates a WebSocket handler backed by the given spec store.
// A nil recorder disables audit recording.
func NewHandler(sessions *Manager, store metaspec.Store, recorder event.Recorder) *Handler {
	return &Handler{sessions: sessions, store: store, recorder: recorder}
}

// ServeHTTP upgrades to WebSocket and runs the message loop.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Error().Err(err).Msg("editorwire: websocket accept")
		return
	}
	defer conn.CloseNow()

	sess := h.sessions.Create()
	defer h.sessions.Remove(sess.ID)
	sess.Actor = r.Header.Get("X-Actor")
	if sess.Actor == "" {
		sess.Actor = "system"
	}
	ctx := r.Context()

	h.send(ctx, conn, ServerMessage{
		Type: "session",
		Data: SessionData{SessionID: sess.ID},
	})

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				log.Debug().Int("status", int(status)).Msg("editorwire: connection closed")
			}
			return
		}
		sess.Touch()

		switch msg.Type {
		case "load":
			h.handleLoad(ctx, conn, sess, msg)
		case "new":
			h.handleNew(ctx, conn, sess, msg)
		case "submit":
			h.handleSubmit(ctx, conn, sess, msg)
		case "ping":
			h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
		default:
			h.handleEdit(ctx, conn, sess, msg)
		}
	}
}

func (h *Handler) handleLoad(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	var data LoadData
	if err := json.Unmarshal(msg.Data, &data); err != nil || data.SpecID == "" {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid load data")
		return
	}

	spec, err := h.store.Get(ctx, data.SpecID)
	if errors.Is(err, metaspec.ErrNotFound) {
		h.sendError(ctx, conn, msg.ID, "not_found", fmt.Sprintf("no metadata spec %q", data.SpecID))
		return
	}
	if err != nil {
		h.sendError(ctx, conn, msg.ID, "store_error", err.Error())
		return
	}

	sess.Editor = metaspec.NewEditor(spec)
	h.sendState(ctx, conn, sess, msg.ID)
}

func (h *Handler) handleNew(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	var data NewData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid new data")
			return
		}
	}
	sess.Editor = metaspec.NewEditor(metaspec.NewSpec(data.Name))
	h.sendState(ctx, conn, sess, msg.ID)
}

// handleEdit dispatches the tree mutations. Every accepted mutation is
// answered with the full working tree so the client never diffs.
func (h *Handler) handleEdit(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	if sess.Editor == nil {
		h.sendError(ctx, conn, msg.ID, "no_spec", "load a spec or start a new one first")
		return
	}

	var err error
	switch msg.Type {
	case "name":
		var data NameData
		if err = json.Unmarshal(msg.Data, &data); err == nil {
			sess.Editor.SetName(data.Name)
		}
	case "add":
		var data AddData
		if err = json.Unmarshal(msg.Data, &data); err == nil {
			err = sess.Editor.Add(data.Path)
		}
	case "remove":
		var data NodeData
		if err = json.Unmarshal(msg.Data, &data); err == nil {
			err = sess.Editor.Remove(data.Path, data.Index)
		}
	case "duplicate":
		var data NodeData
		if err = json.Unmarshal(msg.Data, &data); err == nil {
			err = sess.Editor.Duplicate(data.Path, data.Index)
		}
	case "replace_type":
		var data ReplaceTypeData
		if err = json.Unmarshal(msg.Data, &data); err == nil {
			err = sess.Editor.ReplaceType(data.Path, data.Index, data.Type)
		}
	case "reorder":
		var data ReorderData
		if err = json.Unmarshal(msg.Data, &data); err == nil {
			err = sess.Editor.Reorder(data.Path, data.From, data.To)
		}
	case "set":
		var data SetData
		if err = json.Unmarshal(msg.Data, &data); err == nil {
			err = sess.Editor.Update(data.Path, data.Index, func(p *metaspec.Property) {
				if data.Name != nil {
					p.Name = *data.Name
				}
				if data.DisplayName != nil {
					p.DisplayName = *data.DisplayName
				}
				if data.Required != nil {
					p.Required = *data.Required
				}
				if data.Placeholder != nil {
					p.Placeholder = *data.Placeholder
				}
				if data.DefaultValue != nil {
					p.DefaultValue = *data.DefaultValue
				}
			})
		}
	case "expand":
		var data NodeData
		if err = json.Unmarshal(msg.Data, &data); err == nil {
			err = sess.Editor.Expand(data.Path, data.Index)
		}
	case "collapse":
		var data NodeData
		if err = json.Unmarshal(msg.Data, &data); err == nil {
			sess.Editor.Collapse(data.Path)
		}
	default:
		h.sendError(ctx, conn, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
		return
	}

	if err != nil {
		h.sendError(ctx, conn, msg.ID, "edit_error", err.Error())
		return
	}
	h.sendState(ctx, conn, sess, msg.ID)
}

func (h *Handler) handleSubmit(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	if sess.Editor == nil {
		h.sendError(ctx, conn, msg.ID, "no_spec", "load a spec or start a new one first")
		return
	}

	spec, errs := sess.Editor.Submit()
	if len(errs) > 0 {
		h.send(ctx, conn, ServerMessage{
			Type:      "invalid",
			RequestID: msg.ID,
			Data:      InvalidData{Errors: errs},
		})
		return
	}

	var (
		saved   *metaspec.Spec
		err     error
		created = spec.ID == ""
	)
	if created {
		saved, err = h.store.Create(ctx, spec)
	} else {
		saved, err = h.store.Update(ctx, spec)
	}
	if err != nil {
		h.sendError(ctx, conn, msg.ID, "store_error", err.Error())
		return
	}
	h.record(ctx, sess, saved, created)

	// The working copy picks up the assigned id so a follow-up submit
	// updates instead of creating again.
	sess.Editor = metaspec.NewEditor(saved)
	h.send(ctx, conn, ServerMessage{
		Type:      "saved",
		RequestID: msg.ID,
		Data:      SavedData{Spec: saved},
	})
}

// record writes an audit event for a saved spec. Best-effort: a failed
// write never fails the submit.
func (h *Handler) record(ctx context.Context, sess *Session, saved *metaspec.Spec, created bool) {
	if h.recorder == nil {
		return
	}
	evt := event.NewSpecUpdated(saved, sess.Actor)
	if created {
		evt = event.NewSpecCreated(saved, sess.Actor)
	}
	if err := h.recorder.Record(ctx, evt); err != nil {
		log.Warn().Err(err).Str("event_type", evt.EventType).Msg("editorwire: audit record failed")
	}
}

func (h *Handler) sendState(ctx context.Context, conn *websocket.Conn, sess *Session, requestID string) {
	h.send(ctx, conn, ServerMessage{
		Type:      "state",
		RequestID: requestID,
		Data: StateData{
			Spec:     sess.Editor.Spec(),
			Expanded: sess.Editor.ExpandedLevels(),
			Invalid:  sess.Editor.Invalid(),
		},
	})
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      "error",
		RequestID: requestID,
		Data:      ErrorData{Code: code, Message: message},
	})
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		log.Debug().Err(err).Msg("editorwire: write failed")
	}
}
