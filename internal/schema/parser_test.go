package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const widgetSource = `
#WidgetState: "NEW" | "READY" | "RETIRED"

#Widget: {
	id:        string @readonly()
	name:      string
	size:      int
	weight?:   float
	active:    bool
	state:     "NEW" | "READY" | "RETIRED"
	labels?: [...string]
	attributes?: {[string]: string}
	owner?:    #Owner
	notes?:    string @notnull(groups="update")
	secret?:   string @uionly()
	address?:  string @showwhen("state", "READY|RETIRED")
}

#Owner: {
	name: string
}
`

func parseWidget(t *testing.T) *ModelSchema {
	t.Helper()
	m, err := NewParser().Parse("Widget", widgetSource)
	require.NoError(t, err)
	return m
}

func TestParseFieldOrder(t *testing.T) {
	m := parseWidget(t)
	var names []string
	for _, f := range m.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{
		"id", "name", "size", "weight", "active", "state",
		"labels", "attributes", "owner", "notes", "secret", "address",
	}, names)
}

func TestParsePrimitiveCollapse(t *testing.T) {
	m := parseWidget(t)
	assert.Equal(t, FieldNumber, m.Field("size").Type)
	assert.Equal(t, FieldNumber, m.Field("weight").Type)
	assert.Equal(t, FieldBoolean, m.Field("active").Type)
	assert.Equal(t, FieldString, m.Field("name").Type)
}

func TestParseContainers(t *testing.T) {
	m := parseWidget(t)

	labels := m.Field("labels")
	require.NotNil(t, labels)
	assert.True(t, labels.IsArray)
	assert.False(t, labels.IsMap)
	assert.Equal(t, FieldString, labels.Type)

	attrs := m.Field("attributes")
	require.NotNil(t, attrs)
	assert.True(t, attrs.IsMap)
	assert.False(t, attrs.IsArray)
	assert.Equal(t, FieldString, attrs.Type)
}

func TestParseEnumDetection(t *testing.T) {
	m := parseWidget(t)
	state := m.Field("state")
	require.NotNil(t, state)
	assert.Equal(t, FieldEnum, state.Type)
	assert.Equal(t, []string{"NEW", "READY", "RETIRED"}, state.EnumValues)
}

func TestParseUnknownTypeDefaultsToObject(t *testing.T) {
	m := parseWidget(t)
	owner := m.Field("owner")
	require.NotNil(t, owner)
	assert.Equal(t, FieldObject, owner.Type)
}

func TestParseRequiredness(t *testing.T) {
	m := parseWidget(t)

	// Unqualified non-optional declarations are required.
	assert.True(t, m.Field("name").Required)

	// A group-qualified not-null does not make the field unconditionally
	// required; it records the group rule instead.
	notes := m.Field("notes")
	require.NotNil(t, notes)
	assert.False(t, notes.Required)
	assert.Equal(t, RuleNotNull, notes.ValidationGroups[GroupUpdate])

	assert.False(t, m.Field("weight").Required)
}

func TestParseAttributes(t *testing.T) {
	m := parseWidget(t)
	assert.True(t, m.Field("id").ReadOnly)
	assert.True(t, m.Field("secret").UIOnly)

	addr := m.Field("address")
	require.NotNil(t, addr)
	require.NotNil(t, addr.Visibility)
	assert.Equal(t, "state", addr.Visibility.DependsOn)
	assert.Equal(t, []string{"READY", "RETIRED"}, addr.Visibility.ShowWhen)
}

func TestParseLocalReferencedEnum(t *testing.T) {
	src := `
#WidgetState: "NEW" | "READY" | "RETIRED"

#Widget: {
	name:  string
	state: #WidgetState
}
`
	m, err := NewParser().Parse("Widget", src)
	require.NoError(t, err)
	state := m.Field("state")
	require.NotNil(t, state)
	assert.Equal(t, FieldEnum, state.Type)
	assert.Equal(t, []string{"NEW", "READY", "RETIRED"}, state.EnumValues)
}

func TestParseReferencedNonConstantDisjunction(t *testing.T) {
	src := `
#Mode: "fast" | "slow"

#Thing: {
	mode: #Mode
}
`
	m, err := NewParser().Parse("Thing", src)
	require.NoError(t, err)
	mode := m.Field("mode")
	require.NotNil(t, mode)
	assert.Equal(t, FieldObject, mode.Type)
	assert.Empty(t, mode.EnumValues)
}

func TestParseGroupScopedNotNullKeepsRequired(t *testing.T) {
	src := `
#Thing: {
	name: string @notnull(groups="update")
}
`
	m, err := NewParser().Parse("Thing", src)
	require.NoError(t, err)
	name := m.Field("name")
	require.NotNil(t, name)

	// The optional marker alone governs the unconditional contract; the
	// group qualifier adds a rule without relaxing it.
	assert.True(t, name.Required)
	assert.Equal(t, RuleNotNull, name.ValidationGroups[GroupUpdate])
}

func TestParseKnownExternalEnum(t *testing.T) {
	src := `
#Key: {
	name:  string
	usage: #VaultKeyUsage
}
#VaultKeyUsage: string
`
	m, err := NewParser().Parse("Key", src)
	require.NoError(t, err)
	usage := m.Field("usage")
	require.NotNil(t, usage)
	assert.Equal(t, FieldEnum, usage.Type)
	assert.Equal(t, []string{"SIGNING", "ENCRYPTION", "AUTHENTICATION"}, usage.EnumValues)
}

func TestParseFailSoftOmitsField(t *testing.T) {
	src := `
#Thing: {
	name: string
	odd:  null
}
`
	m, err := NewParser().Parse("Thing", src)
	require.NoError(t, err)
	assert.NotNil(t, m.Field("name"))
	assert.Nil(t, m.Field("odd"))
}

func TestParseMissingDefinition(t *testing.T) {
	_, err := NewParser().Parse("Absent", `#Other: {a: string}`)
	assert.Error(t, err)
}
