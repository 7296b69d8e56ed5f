package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adminforge/adminforge/internal/forms"
	"github.com/adminforge/adminforge/internal/schema"
)

// SchemaHandler serves model schemas and generated form layouts from the
// registry.
type SchemaHandler struct {
	registry *schema.Registry
}

// NewSchemaHandler creates a new SchemaHandler.
func NewSchemaHandler(registry *schema.Registry) *SchemaHandler {
	return &SchemaHandler{registry: registry}
}

// Get returns the model schema for a resource. The optional operation
// query parameter ("create", "update") selects the request variant when
// one is defined; otherwise the base model is returned.
func (h *SchemaHandler) Get(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	operation := r.URL.Query().Get("operation")

	m, ok := h.registry.ResourceSchema(resource, operation)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("no schema for resource %q", resource))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Form returns the generated form layout for a resource, one control per
// schema field in declaration order.
func (h *SchemaHandler) Form(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	operation := r.URL.Query().Get("operation")

	m, ok := h.registry.ResourceSchema(resource, operation)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("no schema for resource %q", resource))
		return
	}
	form := forms.FromModelSchema(m, nil)
	writeJSON(w, http.StatusOK, map[string]any{
		"resource": resource,
		"fields":   form.Fields(),
	})
}
