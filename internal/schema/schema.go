// Package schema defines the field-level model descriptions that drive
// generic forms and payload validation.
//
// A ModelSchema is the parsed, ordered field description of one request or
// response shape. Schemas are produced by the CUE parser (Parse) or looked
// up pre-parsed from the Registry; once produced they are never mutated.
package schema

import (
	"encoding/json"
	"fmt"
)

// FieldType classifies a field for form rendering and payload validation.
type FieldType int

const (
	FieldString FieldType = iota
	FieldNumber
	FieldBoolean
	FieldObject
	FieldEnum
)

// MarshalJSON emits the type name rather than the enum ordinal.
func (ft FieldType) MarshalJSON() ([]byte, error) {
	return json.Marshal(ft.String())
}

// UnmarshalJSON accepts the type name.
func (ft *FieldType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "string":
		*ft = FieldString
	case "number":
		*ft = FieldNumber
	case "boolean":
		*ft = FieldBoolean
	case "object":
		*ft = FieldObject
	case "enum":
		*ft = FieldEnum
	default:
		return fmt.Errorf("unknown field type %q", name)
	}
	return nil
}

// String returns the wire-visible type name.
func (ft FieldType) String() string {
	switch ft {
	case FieldString:
		return "string"
	case FieldNumber:
		return "number"
	case FieldBoolean:
		return "boolean"
	case FieldObject:
		return "object"
	case FieldEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// ValidationGroup scopes a not-null declaration to one persistence phase.
type ValidationGroup string

const (
	GroupInsert ValidationGroup = "insert"
	GroupCreate ValidationGroup = "create"
	GroupUpdate ValidationGroup = "update"
	GroupRead   ValidationGroup = "read"
)

// GroupRule is the constraint a validation group carries for a field.
type GroupRule string

const (
	RuleNull    GroupRule = "null"
	RuleNotNull GroupRule = "not_null"
)

// Visibility describes a conditional-display rule: the field is shown only
// when the controlling field's current value is one of ShowWhen.
type Visibility struct {
	DependsOn string   `json:"depends_on"`
	ShowWhen  []string `json:"show_when"`
}

// FieldSchema describes a single data field. Pure data, no behavior.
//
// Required is set only by an unqualified not-null declaration; a not-null
// scoped to a validation group populates ValidationGroups instead. The two
// are different contracts: required-for-create and required-for-update do
// not imply each other.
type FieldSchema struct {
	Name             string                        `json:"name"`
	Type             FieldType                     `json:"type"`
	Required         bool                          `json:"required"`
	IsArray          bool                          `json:"is_array,omitempty"`
	IsMap            bool                          `json:"is_map,omitempty"`
	EnumValues       []string                      `json:"enum_values,omitempty"`
	Pattern          string                        `json:"pattern,omitempty"`
	Description      string                        `json:"description,omitempty"`
	ReadOnly         bool                          `json:"read_only,omitempty"`
	UIOnly           bool                          `json:"ui_only,omitempty"`
	ValidationGroups map[ValidationGroup]GroupRule `json:"validation_groups,omitempty"`
	Visibility       *Visibility                   `json:"visibility,omitempty"`
}

// ModelSchema is an ordered field description of one model. Field order is
// significant: it drives form control and table column order.
type ModelSchema struct {
	Name   string        `json:"name"`
	Fields []FieldSchema `json:"fields"`
}

// Field returns the schema for a named field, or nil if the model has none.
func (m *ModelSchema) Field(name string) *FieldSchema {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	return nil
}
