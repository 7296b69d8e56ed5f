package forms

import (
	"testing"

	"github.com/adminforge/adminforge/internal/metaspec"
	"github.com/adminforge/adminforge/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userCreateSchema() *schema.ModelSchema {
	return &schema.ModelSchema{
		Name: "UserCreateRequest",
		Fields: []schema.FieldSchema{
			{Name: "username", Type: schema.FieldString, Required: true},
			{Name: "state", Type: schema.FieldEnum, EnumValues: []string{"ACTIVE", "DISABLED"}},
			{Name: "address", Type: schema.FieldString,
				Visibility: &schema.Visibility{DependsOn: "state", ShowWhen: []string{"ACTIVE"}}},
			{Name: "confirmPassword", Type: schema.FieldString, UIOnly: true},
		},
	}
}

func TestFromModelSchemaOrderAndPrefill(t *testing.T) {
	f := FromModelSchema(userCreateSchema(), map[string]any{"username": "ada"})

	fields := f.Fields()
	require.Len(t, fields, 4)
	assert.Equal(t, "username", fields[0].Name)
	assert.Equal(t, "state", fields[1].Name)
	assert.Equal(t, ControlEnum, fields[1].Control)
	assert.Equal(t, []string{"ACTIVE", "DISABLED"}, fields[1].EnumValues)

	v, ok := f.Value([]string{"username"})
	require.True(t, ok)
	assert.Equal(t, "ada", v)
}

func TestConditionalVisibilityRetainsHiddenValues(t *testing.T) {
	f := FromModelSchema(userCreateSchema(), nil)
	addr := f.Fields()[2]

	// No controlling value yet: hidden.
	assert.False(t, f.Visible(addr))

	f.Set([]string{"state"}, "ACTIVE")
	assert.True(t, f.Visible(addr))

	f.Set([]string{"address"}, "10 Main St")
	f.Set([]string{"state"}, "DISABLED")
	assert.False(t, f.Visible(addr))

	// The hidden value survives and is restored when re-shown.
	f.Set([]string{"state"}, "ACTIVE")
	assert.True(t, f.Visible(addr))
	v, ok := f.Value([]string{"address"})
	require.True(t, ok)
	assert.Equal(t, "10 Main St", v)
}

func TestPayloadSkipsUIOnlyFields(t *testing.T) {
	f := FromModelSchema(userCreateSchema(), nil)
	f.Set([]string{"username"}, "ada")
	f.Set([]string{"confirmPassword"}, "hunter2")

	payload := f.Payload()
	assert.Equal(t, "ada", payload["username"])
	_, present := payload["confirmPassword"]
	assert.False(t, present)

	// The field still renders.
	assert.Equal(t, "confirmPassword", f.Fields()[3].Name)
}

func specProperties() []metaspec.Property {
	limits := metaspec.Property{Name: "limits", DisplayName: "Limits", Type: metaspec.TypeObject,
		Properties: []metaspec.Property{
			{Name: "cpu", DisplayName: "CPU", Type: metaspec.TypeNumber},
		}}
	return []metaspec.Property{
		{Name: "region", DisplayName: "Region", Type: metaspec.TypeString, DefaultValue: "east"},
		{Name: "spec", DisplayName: "Spec", Type: metaspec.TypeObject,
			Properties: []metaspec.Property{
				{Name: "size", Type: metaspec.TypeNumber},
				limits,
			}},
		{Name: "tags", DisplayName: "Tags", Type: metaspec.TypeTags},
	}
}

func TestFromPropertiesRecursiveGroups(t *testing.T) {
	f := FromProperties(specProperties(), nil)

	fields := f.Fields()
	require.Len(t, fields, 3)

	spec := fields[1]
	assert.Equal(t, ControlObject, spec.Control)
	require.Len(t, spec.Children, 2)
	assert.Equal(t, "spec.size", spec.Children[0].Key())

	limits := spec.Children[1]
	assert.Equal(t, ControlObject, limits.Control)
	require.Len(t, limits.Children, 1)
	assert.Equal(t, "spec.limits.cpu", limits.Children[0].Key())

	// Label falls back to the property name when DisplayName is empty.
	assert.Equal(t, "size", spec.Children[0].Label)
}

func TestFromPropertiesDefaultsAndOverrides(t *testing.T) {
	f := FromProperties(specProperties(), map[string]any{"spec.size": 8})

	v, ok := f.Value([]string{"region"})
	require.True(t, ok)
	assert.Equal(t, "east", v)

	v, ok = f.Value([]string{"spec", "size"})
	require.True(t, ok)
	assert.Equal(t, 8, v)
}

func TestFormEmpty(t *testing.T) {
	f := FromProperties([]metaspec.Property{
		{Name: "a", Type: metaspec.TypeString},
	}, nil)
	assert.True(t, f.Empty())

	f.Set([]string{"a"}, "")
	assert.True(t, f.Empty())

	f.Set([]string{"a"}, "x")
	assert.False(t, f.Empty())
}
