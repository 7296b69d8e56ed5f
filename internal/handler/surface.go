package handler

import (
	"io"
	"net/http"

	"github.com/adminforge/adminforge/internal/surface"
)

// SurfaceHandler analyzes uploaded OpenAPI documents into per-resource
// operation catalogues.
type SurfaceHandler struct{}

// NewSurfaceHandler creates a new SurfaceHandler.
func NewSurfaceHandler() *SurfaceHandler {
	return &SurfaceHandler{}
}

// Analyze reads an OpenAPI document from the request body and returns the
// catalogued resources in document order.
func (h *SurfaceHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	doc, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	resources, err := surface.Analyze(doc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_DOCUMENT", err.Error())
		return
	}
	if resources == nil {
		resources = []surface.ResourceOperations{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"resources": resources})
}
