package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adminforge/adminforge/internal/activity"
)

// ActivityHandler serves the audit trail.
type ActivityHandler struct {
	store activity.Store
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(store activity.Store) *ActivityHandler {
	return &ActivityHandler{store: store}
}

// ByEntity returns the audit entries for one entity, newest first. Cursor
// pagination: pass the returned next_cursor to continue.
func (h *ActivityHandler) ByEntity(w http.ResponseWriter, r *http.Request) {
	opts := activity.DefaultQueryOptions()
	pg := parsePagination(r)
	opts.Limit = pg.Count
	opts.Cursor = r.URL.Query().Get("cursor")

	entries, next, total, err := h.store.QueryByEntity(
		r.Context(),
		chi.URLParam(r, "entityType"),
		chi.URLParam(r, "entityID"),
		opts,
	)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":       total,
		"next_cursor": next,
		"objects":     entries,
	})
}

// Search performs substring search over audit summaries.
func (h *ActivityHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "MISSING_QUERY", "query parameter q is required")
		return
	}

	opts := activity.DefaultSearchOptions()
	opts.EntityType = r.URL.Query().Get("entity_type")
	opts.Limit = parsePagination(r).Count

	entries, total, err := h.store.Search(r.Context(), q, opts)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":   total,
		"objects": entries,
	})
}
