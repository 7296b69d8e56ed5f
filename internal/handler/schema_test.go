package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adminforge/adminforge/internal/schema"
)

func schemaRouter() http.Handler {
	sch := NewSchemaHandler(schema.DefaultRegistry())
	vh := NewValidateHandler(schema.DefaultRegistry())
	r := chi.NewRouter()
	r.Get("/v1/schemas/{resource}", sch.Get)
	r.Get("/v1/forms/{resource}", sch.Form)
	r.Post("/v1/surface", NewSurfaceHandler().Analyze)
	r.Post("/v1/validate/{resource}", vh.Validate)
	return r
}

func TestGetSchemaForOperation(t *testing.T) {
	router := schemaRouter()

	rec := doJSON(t, router, "GET", "/v1/schemas/users?operation=create", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var m schema.ModelSchema
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, "UserCreateRequest", m.Name)

	names := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "confirmPassword")
}

func TestGetSchemaFallsBackToBaseModel(t *testing.T) {
	router := schemaRouter()

	// Schedules define no update request model.
	rec := doJSON(t, router, "GET", "/v1/schemas/schedules?operation=update", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var m schema.ModelSchema
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, "Schedule", m.Name)
}

func TestGetSchemaUnknownResource(t *testing.T) {
	rec := doJSON(t, schemaRouter(), "GET", "/v1/schemas/gadgets", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFormLayoutFollowsSchemaOrder(t *testing.T) {
	rec := doJSON(t, schemaRouter(), "GET", "/v1/forms/vault_keys", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Resource string `json:"resource"`
		Fields   []struct {
			Name    string `json:"name"`
			Control string `json:"control"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "vault_keys", resp.Resource)
	require.NotEmpty(t, resp.Fields)
	assert.Equal(t, "id", resp.Fields[0].Name)

	controls := make(map[string]string)
	for _, f := range resp.Fields {
		controls[f.Name] = f.Control
	}
	assert.Equal(t, "enum", controls["usage"])
	assert.Equal(t, "boolean", controls["enabled"])
}

func TestValidatePayload(t *testing.T) {
	router := schemaRouter()

	rec := doJSON(t, router, "POST", "/v1/validate/users?operation=create", map[string]any{
		"username":        "ada",
		"email":           "ada@example.com",
		"password":        "s3cret",
		"confirmPassword": "s3cret",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Empty(t, resp.Errors)

	rec = doJSON(t, router, "POST", "/v1/validate/users?operation=create", map[string]any{
		"username": "ada",
	})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.NotEmpty(t, resp.Errors)
}

func TestValidateDistinguishesMalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/v1/validate/users", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	schemaRouter().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_JSON")
}

func TestSurfaceAnalyzeEndpoint(t *testing.T) {
	doc := `{
		"openapi": "3.0.0",
		"paths": {
			"/api/v1/widget": {
				"get": {"parameters": [{"name": "offset", "in": "query"}]},
				"post": {}
			},
			"/api/v1/widget/{id}": {
				"get": {},
				"put": {},
				"delete": {}
			}
		}
	}`
	req := httptest.NewRequest("POST", "/v1/surface", bytes.NewBufferString(doc))
	rec := httptest.NewRecorder()
	schemaRouter().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Resources []struct {
			ResourceName string `json:"resource_name"`
		} `json:"resources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Resources, 1)
	assert.Equal(t, "widget", resp.Resources[0].ResourceName)
}

func TestSurfaceAnalyzeRejectsGarbage(t *testing.T) {
	req := httptest.NewRequest("POST", "/v1/surface", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	schemaRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
