package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/adminforge/adminforge/internal/metaspec"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("handler: writeJSON encode")
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// Pagination holds parsed list parameters.
type Pagination struct {
	Offset int
	Count  int
	Search string
}

// defaultPageCount is the page size applied when a list request carries no
// count parameter.
var defaultPageCount = 20

// SetDefaultPageCount overrides the default list page size. Set once at
// startup from configuration.
func SetDefaultPageCount(n int) {
	if n > 0 {
		defaultPageCount = n
	}
}

// parsePagination extracts offset, count, and search from query params.
func parsePagination(r *http.Request) Pagination {
	p := Pagination{Count: defaultPageCount}
	q := r.URL.Query()
	if v := q.Get("count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Count = n
		}
	}
	if p.Count > 100 {
		p.Count = 100
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			p.Offset = n
		}
	}
	p.Search = q.Get("search")
	return p
}

// page is the list response envelope.
type page struct {
	Offset  int `json:"offset"`
	Total   int `json:"total"`
	Objects any `json:"objects"`
}

// storeErrorToHTTP maps store errors to appropriate HTTP responses.
func storeErrorToHTTP(w http.ResponseWriter, err error) {
	if errors.Is(err, metaspec.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	log.Error().Err(err).Msg("handler: internal error")
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}
