package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/adminforge/adminforge/internal/event"
	"github.com/adminforge/adminforge/internal/metaspec"
)

// MetadataSpecHandler implements HTTP handlers for metadata specs.
type MetadataSpecHandler struct {
	store    metaspec.Store
	recorder event.Recorder
}

// NewMetadataSpecHandler creates a new MetadataSpecHandler. A nil recorder
// disables audit recording.
func NewMetadataSpecHandler(store metaspec.Store, recorder event.Recorder) *MetadataSpecHandler {
	return &MetadataSpecHandler{store: store, recorder: recorder}
}

// record writes a domain event. Audit recording is best-effort and never
// fails the request.
func (h *MetadataSpecHandler) record(r *http.Request, evt event.DomainEvent) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.Record(r.Context(), evt); err != nil {
		log.Warn().Err(err).Str("event_type", evt.EventType).Msg("handler: audit record failed")
	}
}

// actorFrom extracts the acting user from request headers.
func actorFrom(r *http.Request) string {
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return actor
	}
	return "system"
}

func (h *MetadataSpecHandler) Create(w http.ResponseWriter, r *http.Request) {
	var spec metaspec.Spec
	if err := decodeJSON(r, &spec); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if errs := metaspec.ValidateSpec(&spec); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":   "VALIDATION_ERROR",
			"errors": errs,
		})
		return
	}

	saved, err := h.store.Create(r.Context(), &spec)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	h.record(r, event.NewSpecCreated(saved, actorFrom(r)))
	writeJSON(w, http.StatusCreated, saved)
}

func (h *MetadataSpecHandler) Get(w http.ResponseWriter, r *http.Request) {
	spec, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

func (h *MetadataSpecHandler) List(w http.ResponseWriter, r *http.Request) {
	pg := parsePagination(r)
	specs, total, err := h.store.List(r.Context(), metaspec.ListOptions{
		Offset: pg.Offset,
		Count:  pg.Count,
		Search: pg.Search,
	})
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	if specs == nil {
		specs = []*metaspec.Spec{}
	}
	writeJSON(w, http.StatusOK, page{Offset: pg.Offset, Total: total, Objects: specs})
}

// Update replaces the stored spec wholesale; partial patches of the
// property tree are not supported.
func (h *MetadataSpecHandler) Update(w http.ResponseWriter, r *http.Request) {
	var spec metaspec.Spec
	if err := decodeJSON(r, &spec); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	spec.ID = chi.URLParam(r, "id")
	if errs := metaspec.ValidateSpec(&spec); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":   "VALIDATION_ERROR",
			"errors": errs,
		})
		return
	}

	saved, err := h.store.Update(r.Context(), &spec)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	h.record(r, event.NewSpecUpdated(saved, actorFrom(r)))
	writeJSON(w, http.StatusOK, saved)
}

func (h *MetadataSpecHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	h.record(r, event.NewSpecDeleted(id, actorFrom(r)))
	w.WriteHeader(http.StatusNoContent)
}
