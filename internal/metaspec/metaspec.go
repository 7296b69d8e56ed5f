// Package metaspec implements the recursive, user-authored metadata
// schema: an ordered tree of named, typed properties where OBJECT nodes own
// nested property lists of unbounded depth.
package metaspec

import (
	"time"
)

// PropertyType is the closed set of property types. Every switch over it
// is exhaustive; there is no silently-unsupported type.
type PropertyType string

const (
	TypeString  PropertyType = "STRING"
	TypeNumber  PropertyType = "NUMBER"
	TypeBoolean PropertyType = "BOOLEAN"
	TypeObject  PropertyType = "OBJECT"
	TypeArray   PropertyType = "ARRAY"
	TypeTags    PropertyType = "TAGS"
)

// Valid reports whether t is one of the declared property types.
func (t PropertyType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeObject, TypeArray, TypeTags:
		return true
	}
	return false
}

// HasChildren reports whether t owns a nested property list. Only OBJECT
// does; ARRAY and TAGS are leaves holding comma-separated values.
func (t PropertyType) HasChildren() bool {
	return t == TypeObject
}

// Property is one node of the metadata spec tree.
//
// Invariant: Properties is non-empty only when Type is OBJECT; for every
// other type it stays an empty sequence. Names must be unique among
// siblings; duplicates are rejected at validation time, never auto-renamed.
type Property struct {
	Name         string       `json:"name"`
	DisplayName  string       `json:"displayName"`
	Type         PropertyType `json:"type"`
	Required     bool         `json:"required"`
	Placeholder  string       `json:"placeholder,omitempty"`
	DefaultValue string       `json:"defaultValue,omitempty"`
	Properties   []Property   `json:"properties,omitempty"`
}

// NewProperty returns the fresh default node for a type: empty names, not
// required, no default, and (for OBJECT) an empty child list.
func NewProperty(t PropertyType) Property {
	return Property{Type: t}
}

// Clone returns a deep copy of the property and its subtree.
func (p Property) Clone() Property {
	cp := p
	if len(p.Properties) > 0 {
		cp.Properties = make([]Property, len(p.Properties))
		for i, child := range p.Properties {
			cp.Properties[i] = child.Clone()
		}
	}
	return cp
}

// Spec is the root of a metadata spec. The root behaves as an OBJECT: its
// Properties are the top level of the tree. Specs are mutated wholesale —
// every save replaces the entire property tree.
type Spec struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Type       PropertyType `json:"type"`
	Properties []Property   `json:"properties"`
	CreatedAt  time.Time    `json:"createdAt,omitempty"`
	UpdatedAt  time.Time    `json:"updatedAt,omitempty"`
}

// NewSpec creates an empty named spec.
func NewSpec(name string) *Spec {
	return &Spec{Name: name, Type: TypeObject}
}

// Clone returns a deep copy of the spec.
func (s *Spec) Clone() *Spec {
	cp := *s
	cp.Properties = make([]Property, len(s.Properties))
	for i, p := range s.Properties {
		cp.Properties[i] = p.Clone()
	}
	return &cp
}
