package metaspec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// tagListPattern constrains default values of TAGS and ARRAY properties:
// comma-separated identifiers with no blanks.
var tagListPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+(,[a-zA-Z0-9_]+)*$`)

// Editor is an editing session over one spec's property tree.
//
// A single editor edits the whole tree: nested OBJECT properties are
// addressed by an index path (sequence of child indices from the root)
// rather than by opening a separate editor per subtree, so there is no
// parent/child state copy to reconcile. An empty path addresses the top
// level.
type Editor struct {
	spec     *Spec
	expanded map[string]int // level key -> expanded child index
	invalid  bool
}

// NewEditor starts an editing session on a deep copy of spec, leaving the
// caller's value untouched until Submit.
func NewEditor(spec *Spec) *Editor {
	return &Editor{spec: spec.Clone(), expanded: make(map[string]int)}
}

// Spec returns the session's working copy.
func (e *Editor) Spec() *Spec { return e.spec }

// Invalid reports whether the last Submit failed validation.
func (e *Editor) Invalid() bool { return e.invalid }

// SetName renames the root spec.
func (e *Editor) SetName(name string) { e.spec.Name = name }

// level resolves an index path to the property list it addresses. Every
// path element must index an OBJECT property.
func (e *Editor) level(path []int) (*[]Property, error) {
	props := &e.spec.Properties
	for depth, idx := range path {
		if idx < 0 || idx >= len(*props) {
			return nil, fmt.Errorf("path index %d out of range at depth %d", idx, depth)
		}
		node := &(*props)[idx]
		if node.Type != TypeObject {
			return nil, fmt.Errorf("property %q at depth %d is %s, not OBJECT", node.Name, depth, node.Type)
		}
		props = &node.Properties
	}
	return props, nil
}

// property resolves path+index to a single node.
func (e *Editor) property(path []int, i int) (*Property, error) {
	props, err := e.level(path)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(*props) {
		return nil, fmt.Errorf("index %d out of range (level has %d properties)", i, len(*props))
	}
	return &(*props)[i], nil
}

// Add appends a fresh default leaf (STRING, unnamed, not required) to the
// addressed level. The new property is not auto-expanded.
func (e *Editor) Add(path []int) error {
	props, err := e.level(path)
	if err != nil {
		return err
	}
	*props = append(*props, NewProperty(TypeString))
	return nil
}

// Remove deletes the property at index i, discarding its subtree. Siblings
// re-index; their names and types are untouched.
func (e *Editor) Remove(path []int, i int) error {
	props, err := e.level(path)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(*props) {
		return fmt.Errorf("index %d out of range (level has %d properties)", i, len(*props))
	}
	*props = append((*props)[:i], (*props)[i+1:]...)
	e.dropExpanded(path, i)
	return nil
}

// Duplicate appends a deep copy of property i to the same level. The copy
// keeps the original's name; sibling-name uniqueness is enforced at
// validation time, so callers must rename before a successful Submit.
func (e *Editor) Duplicate(path []int, i int) error {
	props, err := e.level(path)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(*props) {
		return fmt.Errorf("index %d out of range (level has %d properties)", i, len(*props))
	}
	*props = append(*props, (*props)[i].Clone())
	return nil
}

// ReplaceType swaps property i for a fresh default node of newType,
// keeping only the name and display name. The destruction is deliberate:
// a STRING default value or an OBJECT subtree has no meaning under another
// type, so prior configuration is discarded rather than coerced.
func (e *Editor) ReplaceType(path []int, i int, newType PropertyType) error {
	if !newType.Valid() {
		return fmt.Errorf("unknown property type %q", newType)
	}
	node, err := e.property(path, i)
	if err != nil {
		return err
	}
	fresh := NewProperty(newType)
	fresh.Name = node.Name
	fresh.DisplayName = node.DisplayName
	*node = fresh
	return nil
}

// Reorder moves the property at from to position to, shifting the
// intermediate siblings; all other elements keep their relative order.
func (e *Editor) Reorder(path []int, from, to int) error {
	props, err := e.level(path)
	if err != nil {
		return err
	}
	n := len(*props)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("reorder %d -> %d out of range (level has %d properties)", from, to, n)
	}
	if from == to {
		return nil
	}
	moved := (*props)[from]
	*props = append((*props)[:from], (*props)[from+1:]...)
	rest := append([]Property{}, (*props)[to:]...)
	*props = append(append((*props)[:to], moved), rest...)
	return nil
}

// Update edits the scalar members of property i. It never changes the
// type: type changes go through ReplaceType so their destructiveness is
// explicit.
func (e *Editor) Update(path []int, i int, mutate func(*Property)) error {
	node, err := e.property(path, i)
	if err != nil {
		return err
	}
	keep := node.Type
	keepChildren := node.Properties
	mutate(node)
	node.Type = keep
	node.Properties = keepChildren
	return nil
}

// Expand marks property i as the expanded one at its level; only OBJECT
// properties expand into a nested level.
func (e *Editor) Expand(path []int, i int) error {
	node, err := e.property(path, i)
	if err != nil {
		return err
	}
	if node.Type != TypeObject {
		return fmt.Errorf("property %q is %s, not OBJECT", node.Name, node.Type)
	}
	e.expanded[levelKey(path)] = i
	return nil
}

// Collapse clears the expanded property at the addressed level.
func (e *Editor) Collapse(path []int) {
	delete(e.expanded, levelKey(path))
}

// Expanded returns the expanded index at the addressed level, or -1.
func (e *Editor) Expanded(path []int) int {
	if i, ok := e.expanded[levelKey(path)]; ok {
		return i
	}
	return -1
}

// ExpandedLevels returns a copy of the expansion state, keyed by the
// dotted index path of each level ("" for the root level).
func (e *Editor) ExpandedLevels() map[string]int {
	out := make(map[string]int, len(e.expanded))
	for k, v := range e.expanded {
		out[k] = v
	}
	return out
}

// Submit validates the working tree. On success it returns the validated
// spec and a nil error list; on failure the session is flagged invalid and
// the field-level messages are returned (submission is blocked).
func (e *Editor) Submit() (*Spec, []string) {
	errs := ValidateSpec(e.spec)
	if len(errs) > 0 {
		e.invalid = true
		return nil, errs
	}
	e.invalid = false
	return e.spec.Clone(), nil
}

func (e *Editor) dropExpanded(path []int, removed int) {
	key := levelKey(path)
	if i, ok := e.expanded[key]; ok {
		switch {
		case i == removed:
			delete(e.expanded, key)
		case i > removed:
			e.expanded[key] = i - 1
		}
	}
}

func levelKey(path []int) string {
	if len(path) == 0 {
		return ""
	}
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}

// ── Validation ──────────────────────────────────────────────────────────────

// ValidateSpec checks a spec tree for submission: root name present, every
// property fully declared, tag-list defaults well formed, sibling names
// unique, and children confined to OBJECT nodes.
func ValidateSpec(s *Spec) []string {
	var errs []string
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, "spec name is required")
	}
	errs = append(errs, validateLevel("", s.Properties)...)
	return errs
}

func validateLevel(prefix string, props []Property) []string {
	var errs []string
	seen := make(map[string]bool)
	for i, p := range props {
		at := fmt.Sprintf("%sproperty %d", prefix, i)
		if p.Name != "" {
			at = fmt.Sprintf("%sproperty %q", prefix, p.Name)
		}

		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, at+": name is required")
		} else if seen[p.Name] {
			errs = append(errs, at+": duplicate sibling name")
		}
		seen[p.Name] = true

		if !p.Type.Valid() {
			errs = append(errs, at+": type is required")
			continue
		}

		switch p.Type {
		case TypeTags, TypeArray:
			if p.DefaultValue != "" && !tagListPattern.MatchString(p.DefaultValue) {
				errs = append(errs, at+": default value must be a comma-separated identifier list")
			}
		case TypeObject:
			errs = append(errs, validateLevel(at+" > ", p.Properties)...)
		case TypeString, TypeNumber, TypeBoolean:
			// Leaf scalars carry no structural constraints.
		}

		if p.Type != TypeObject && len(p.Properties) > 0 {
			errs = append(errs, at+": only OBJECT properties may own nested properties")
		}
	}
	return errs
}
