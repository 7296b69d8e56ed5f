package forms

import (
	"fmt"
	"strings"

	"github.com/adminforge/adminforge/internal/metaspec"
	"github.com/adminforge/adminforge/internal/schema"
)

// Control classifies what kind of input a field renders as.
type Control string

const (
	ControlString  Control = "string"
	ControlNumber  Control = "number"
	ControlBoolean Control = "boolean"
	ControlEnum    Control = "enum"
	ControlObject  Control = "object"
	ControlArray   Control = "array"
	ControlTags    Control = "tags"
)

// Field is one editable control in a generated field set. OBJECT fields
// are labelled groups whose Children were generated recursively; their
// values live under the field's path in the form's value store.
type Field struct {
	Name        string             `json:"name"`
	Label       string             `json:"label"`
	Path        []string           `json:"path"`
	Control     Control            `json:"control"`
	Required    bool               `json:"required"`
	Repeated    bool               `json:"repeated,omitempty"` // array-valued
	Mapped      bool               `json:"mapped,omitempty"`   // map-valued
	ReadOnly    bool               `json:"readOnly,omitempty"`
	UIOnly      bool               `json:"uiOnly,omitempty"`
	Placeholder string             `json:"placeholder,omitempty"`
	EnumValues  []string           `json:"enumValues,omitempty"`
	Visibility  *schema.Visibility `json:"visibility,omitempty"`
	Children    []Field            `json:"children,omitempty"`
}

// Key returns the dot-joined storage key for the field.
func (f Field) Key() string {
	return strings.Join(f.Path, ".")
}

// Form is an editable field set plus its value state. Hidden fields keep
// their values: re-showing a field restores the prior input.
type Form struct {
	fields []Field
	values *ValueStore
}

// FromModelSchema generates one control per schema field, in schema order,
// pre-populated from current by field name.
func FromModelSchema(m *schema.ModelSchema, current map[string]any) *Form {
	f := &Form{values: NewValueStore()}
	for _, fs := range m.Fields {
		field := Field{
			Name:       fs.Name,
			Label:      fs.Name,
			Path:       []string{fs.Name},
			Control:    controlForFieldType(fs.Type),
			Required:   fs.Required,
			Repeated:   fs.IsArray,
			Mapped:     fs.IsMap,
			ReadOnly:   fs.ReadOnly,
			UIOnly:     fs.UIOnly,
			EnumValues: fs.EnumValues,
			Visibility: fs.Visibility,
		}
		if fs.Description != "" {
			field.Label = fs.Description
		}
		f.fields = append(f.fields, field)
	}
	for name, value := range current {
		f.values.Set([]string{name}, value)
	}
	return f
}

// FromProperties generates controls for a metadata spec property list.
// OBJECT properties become groups generated recursively; leaf defaults
// pre-populate values not supplied by current.
func FromProperties(props []metaspec.Property, current map[string]any) *Form {
	f := &Form{values: NewValueStore()}
	f.fields = buildPropertyFields(f.values, nil, props)
	for key, value := range current {
		f.values.Set(strings.Split(key, "."), value)
	}
	return f
}

func buildPropertyFields(values *ValueStore, prefix []string, props []metaspec.Property) []Field {
	var fields []Field
	for _, p := range props {
		path := append(append([]string{}, prefix...), p.Name)
		field := Field{
			Name:        p.Name,
			Label:       p.DisplayName,
			Path:        path,
			Control:     controlForPropertyType(p.Type),
			Required:    p.Required,
			Placeholder: p.Placeholder,
		}
		if field.Label == "" {
			field.Label = p.Name
		}
		switch p.Type {
		case metaspec.TypeObject:
			field.Children = buildPropertyFields(values, path, p.Properties)
		case metaspec.TypeString, metaspec.TypeNumber, metaspec.TypeBoolean,
			metaspec.TypeArray, metaspec.TypeTags:
			if p.DefaultValue != "" {
				if _, ok := values.Get(path); !ok {
					values.Set(path, p.DefaultValue)
				}
			}
		}
		fields = append(fields, field)
	}
	return fields
}

func controlForFieldType(t schema.FieldType) Control {
	switch t {
	case schema.FieldString:
		return ControlString
	case schema.FieldNumber:
		return ControlNumber
	case schema.FieldBoolean:
		return ControlBoolean
	case schema.FieldEnum:
		return ControlEnum
	case schema.FieldObject:
		return ControlObject
	default:
		return ControlString
	}
}

func controlForPropertyType(t metaspec.PropertyType) Control {
	switch t {
	case metaspec.TypeString:
		return ControlString
	case metaspec.TypeNumber:
		return ControlNumber
	case metaspec.TypeBoolean:
		return ControlBoolean
	case metaspec.TypeObject:
		return ControlObject
	case metaspec.TypeArray:
		return ControlArray
	case metaspec.TypeTags:
		return ControlTags
	}
	return ControlString
}

// Fields returns the generated field set in declaration order.
func (f *Form) Fields() []Field { return f.fields }

// Values returns the form's value store.
func (f *Form) Values() *ValueStore { return f.values }

// Set writes a field value.
func (f *Form) Set(path []string, value any) { f.values.Set(path, value) }

// Value reads a field value.
func (f *Form) Value(path []string) (any, bool) { return f.values.Get(path) }

// Visible evaluates a field's conditional-visibility rule against the
// current values. Fields without a rule are always visible. Hiding never
// clears the stored value.
func (f *Form) Visible(field Field) bool {
	v := field.Visibility
	if v == nil {
		return true
	}
	controlling, ok := f.values.Get([]string{v.DependsOn})
	if !ok {
		return false
	}
	current := fmt.Sprint(controlling)
	for _, want := range v.ShowWhen {
		if current == want {
			return true
		}
	}
	return false
}

// Payload builds the request payload: the nested value tree minus fields
// marked uiOnly, which render but are never sent.
func (f *Form) Payload() map[string]any {
	payload := &ValueStore{root: copyTree(f.values.root)}
	var prune func(fields []Field)
	prune = func(fields []Field) {
		for _, field := range fields {
			if field.UIOnly {
				payload.Delete(field.Path)
				continue
			}
			prune(field.Children)
		}
	}
	prune(f.fields)
	return payload.root
}

// Empty reports whether the form holds no values at all — used to decide
// whether an abandoned create dialog is worth drafting.
func (f *Form) Empty() bool {
	for _, value := range f.values.Flatten() {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			if v != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}
