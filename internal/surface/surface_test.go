package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const widgetDoc = `{
  "openapi": "3.0.0",
  "paths": {
    "/widget": {
      "get": {
        "parameters": [
          {"name": "offset", "in": "query"},
          {"name": "count", "in": "query"},
          {"name": "search", "in": "query"}
        ]
      },
      "post": {
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {"type": "object", "properties": {"name": {"type": "string"}}}
            }
          }
        }
      }
    },
    "/widget/{id}": {
      "parameters": [{"name": "id", "in": "path"}],
      "get": {},
      "put": {
        "requestBody": {
          "content": {
            "application/json": {"schema": {"type": "object"}}
          }
        }
      },
      "delete": {}
    }
  }
}`

func TestAnalyzeWidgetScenario(t *testing.T) {
	resources, err := Analyze([]byte(widgetDoc))
	require.NoError(t, err)
	require.Len(t, resources, 1)

	w := resources[0]
	assert.Equal(t, "widget", w.ResourceName)

	require.NotNil(t, w.List)
	assert.Equal(t, "/widget", w.List.Path)
	assert.Equal(t, []string{"offset", "count", "search"}, w.List.QueryParams)
	assert.Empty(t, w.List.PathParams)

	require.NotNil(t, w.Get)
	assert.Equal(t, "/widget/{id}", w.Get.Path)
	assert.Equal(t, []string{"id"}, w.Get.PathParams)

	require.Len(t, w.Create, 1)
	assert.Equal(t, "/widget", w.Create[0].Path)
	assert.NotEmpty(t, w.Create[0].RequestSchema)

	require.Len(t, w.Update, 1)
	assert.Equal(t, "/widget/{id}", w.Update[0].Path)
	assert.NotEmpty(t, w.Update[0].RequestSchema)

	require.Len(t, w.Delete, 1)
	assert.Equal(t, "/widget/{id}", w.Delete[0].Path)
}

func TestAnalyzeMultiplePathsPerResource(t *testing.T) {
	doc := `{
	  "paths": {
	    "/vault/{vaultId}/key": {"post": {}},
	    "/vault/key": {"post": {}, "get": {}},
	    "/vault/key/{id}": {"delete": {}},
	    "/vault/{vaultId}/key/{id}": {"delete": {}}
	  }
	}`
	resources, err := Analyze([]byte(doc))
	require.NoError(t, err)
	require.Len(t, resources, 1)

	v := resources[0]
	assert.Equal(t, "vault_key", v.ResourceName)

	// Both creates survive; the parameterless path is canonical.
	require.Len(t, v.Create, 2)
	assert.Equal(t, "/vault/key", v.Create[0].Path)
	assert.Equal(t, "/vault/{vaultId}/key", v.Create[1].Path)

	require.Len(t, v.Delete, 2)
	assert.Equal(t, "/vault/key/{id}", v.Delete[0].Path)
}

func TestAnalyzeStripsVersionPrefix(t *testing.T) {
	doc := `{
	  "paths": {
	    "/api/v1/user": {"get": {}},
	    "/api/v1/user/{id}": {"get": {}}
	  }
	}`
	resources, err := Analyze([]byte(doc))
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "user", resources[0].ResourceName)
}

func TestAnalyzeOrderFollowsDocument(t *testing.T) {
	doc := `{
	  "paths": {
	    "/zebra": {"get": {}},
	    "/apple": {"get": {}},
	    "/mango": {"get": {}}
	  }
	}`
	resources, err := Analyze([]byte(doc))
	require.NoError(t, err)
	var names []string
	for _, r := range resources {
		names = append(names, r.ResourceName)
	}
	assert.Equal(t, []string{"zebra", "apple", "mango"}, names)
}

func TestAnalyzeRejectsMalformedDocument(t *testing.T) {
	_, err := Analyze([]byte(`{"paths": 12}`))
	assert.Error(t, err)

	_, err = Analyze([]byte(`{}`))
	assert.Error(t, err)
}
