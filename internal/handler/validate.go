package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adminforge/adminforge/internal/schema"
	"github.com/adminforge/adminforge/internal/validate"
)

// ValidateHandler runs schema validation over submitted payloads without
// persisting anything.
type ValidateHandler struct {
	registry *schema.Registry
}

// NewValidateHandler creates a new ValidateHandler.
func NewValidateHandler(registry *schema.Registry) *ValidateHandler {
	return &ValidateHandler{registry: registry}
}

// Validate checks the request body against the resource's schema. A body
// that is not JSON is a request error; a body that fails field validation
// is a normal 200 with the collected messages.
func (h *ValidateHandler) Validate(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	operation := r.URL.Query().Get("operation")

	m, ok := h.registry.ResourceSchema(resource, operation)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("no schema for resource %q", resource))
		return
	}

	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	errs := validate.Model(m, payload)
	if errs == nil {
		errs = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":  len(errs) == 0,
		"errors": errs,
	})
}
