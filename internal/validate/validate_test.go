package validate

import (
	"testing"

	"github.com/adminforge/adminforge/internal/metaspec"
	"github.com/adminforge/adminforge/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widgetSchema() *schema.ModelSchema {
	return &schema.ModelSchema{
		Name: "Widget",
		Fields: []schema.FieldSchema{
			{Name: "name", Type: schema.FieldString, Required: true},
			{Name: "size", Type: schema.FieldNumber},
			{Name: "active", Type: schema.FieldBoolean},
			{Name: "state", Type: schema.FieldEnum, EnumValues: []string{"NEW", "READY"}},
			{Name: "labels", Type: schema.FieldString, IsArray: true},
			{Name: "attrs", Type: schema.FieldString, IsMap: true},
		},
	}
}

func TestModelRequiredMissing(t *testing.T) {
	errs := Model(widgetSchema(), map[string]any{"size": 1.0})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `"name"`)
}

func TestModelRequiredSkipsFurtherChecks(t *testing.T) {
	// Absent required field contributes exactly one error even though the
	// type check could never pass.
	errs := Model(widgetSchema(), map[string]any{})
	assert.Len(t, errs, 1)
}

func TestModelTypeChecks(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{"string", map[string]any{"name": 7}, `field "name" must be a string`},
		{"number", map[string]any{"name": "w", "size": "big"}, `field "size" must be a number`},
		{"boolean", map[string]any{"name": "w", "active": "yes"}, `field "active" must be a boolean`},
		{"enum member", map[string]any{"name": "w", "state": "OLD"}, `field "state" must be one of [NEW, READY]`},
		{"enum type", map[string]any{"name": "w", "state": 4.0}, `field "state" must be a string`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			errs := Model(widgetSchema(), tc.payload)
			require.Len(t, errs, 1)
			assert.Equal(t, tc.want, errs[0])
		})
	}
}

func TestModelArrayCheckedBeforePrimitive(t *testing.T) {
	// A string value where an array of strings is declared fails on
	// array-ness, not on the element type.
	errs := Model(widgetSchema(), map[string]any{"name": "w", "labels": "solo"})
	require.Len(t, errs, 1)
	assert.Equal(t, `field "labels" must be an array`, errs[0])

	// Element contents are out of scope: a mixed array passes.
	errs = Model(widgetSchema(), map[string]any{"name": "w", "labels": []any{"a", 1, true}})
	assert.Empty(t, errs)
}

func TestModelMapCheck(t *testing.T) {
	errs := Model(widgetSchema(), map[string]any{"name": "w", "attrs": []any{}})
	require.Len(t, errs, 1)
	assert.Equal(t, `field "attrs" must be an object`, errs[0])

	errs = Model(widgetSchema(), map[string]any{"name": "w", "attrs": map[string]any{"k": "v"}})
	assert.Empty(t, errs)
}

func TestModelErrorsInSchemaOrder(t *testing.T) {
	errs := Model(widgetSchema(), map[string]any{"size": "big", "active": "sure"})
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], `"name"`)
	assert.Contains(t, errs[1], `"size"`)
	assert.Contains(t, errs[2], `"active"`)
}

func TestModelValidPayload(t *testing.T) {
	errs := Model(widgetSchema(), map[string]any{
		"name":   "w",
		"size":   2.5,
		"active": true,
		"state":  "READY",
		"labels": []any{"a"},
		"attrs":  map[string]any{"k": "v"},
	})
	assert.Empty(t, errs)
}

func TestLeafTypes(t *testing.T) {
	tests := []struct {
		ptype metaspec.PropertyType
		good  any
		bad   any
	}{
		{metaspec.TypeString, "s", 1.0},
		{metaspec.TypeNumber, 3.0, "three"},
		{metaspec.TypeBoolean, true, "true"},
		{metaspec.TypeObject, map[string]any{}, "x"},
		{metaspec.TypeArray, []any{"a"}, 1.0},
		{metaspec.TypeTags, "a,b", 1.0},
	}
	for _, tc := range tests {
		t.Run(string(tc.ptype), func(t *testing.T) {
			p := metaspec.Property{Name: "p", Type: tc.ptype}
			assert.Empty(t, Leaf(p, tc.good))
			assert.NotEmpty(t, Leaf(p, tc.bad))
		})
	}
}

func TestLeafRequired(t *testing.T) {
	p := metaspec.Property{Name: "p", Type: metaspec.TypeString, Required: true}
	errs := Leaf(p, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `"p"`)

	p.Required = false
	assert.Empty(t, Leaf(p, nil))
}
