package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	p := parsePagination(httptest.NewRequest("GET", "/v1/things", nil))
	assert.Equal(t, 0, p.Offset)
	assert.Equal(t, 20, p.Count)
	assert.Empty(t, p.Search)

	p = parsePagination(httptest.NewRequest("GET", "/v1/things?offset=40&count=500&search=abc", nil))
	assert.Equal(t, 40, p.Offset)
	assert.Equal(t, 100, p.Count)
	assert.Equal(t, "abc", p.Search)
}

func TestSetDefaultPageCount(t *testing.T) {
	orig := defaultPageCount
	defer SetDefaultPageCount(orig)

	SetDefaultPageCount(50)
	p := parsePagination(httptest.NewRequest("GET", "/v1/things", nil))
	assert.Equal(t, 50, p.Count)

	// Explicit count still wins.
	p = parsePagination(httptest.NewRequest("GET", "/v1/things?count=5", nil))
	assert.Equal(t, 5, p.Count)

	// Non-positive overrides are ignored.
	SetDefaultPageCount(0)
	p = parsePagination(httptest.NewRequest("GET", "/v1/things", nil))
	assert.Equal(t, 50, p.Count)
}
