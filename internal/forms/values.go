// Package forms generates editable field sets from a ModelSchema or a
// metadata spec property list, and tracks the values behind them.
package forms

import (
	"strings"
)

// ValueStore holds form state as a genuine nested value tree. Paths are
// slices of segments; the dot-joined flat form exists only at the storage
// boundary (Flatten/FromFlat), never as the source of truth.
type ValueStore struct {
	root map[string]any
}

// NewValueStore creates an empty store.
func NewValueStore() *ValueStore {
	return &ValueStore{root: make(map[string]any)}
}

// FromFlat rebuilds a store from dot-joined keys: each key splits on "." and
// the nested object is built incrementally, the last segment winning the
// leaf value.
func FromFlat(flat map[string]any) *ValueStore {
	s := NewValueStore()
	for key, value := range flat {
		s.Set(strings.Split(key, "."), value)
	}
	return s
}

// Get returns the value at path.
func (s *ValueStore) Get(path []string) (any, bool) {
	node := any(s.root)
	for _, seg := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// Set writes value at path, materializing intermediate objects. A leaf in
// the way of an intermediate segment is replaced by an object.
func (s *ValueStore) Set(path []string, value any) {
	if len(path) == 0 {
		return
	}
	node := s.root
	for _, seg := range path[:len(path)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[seg] = child
		}
		node = child
	}
	node[path[len(path)-1]] = value
}

// Delete removes the value at path, leaving empty intermediate objects in
// place.
func (s *ValueStore) Delete(path []string) {
	if len(path) == 0 {
		return
	}
	node := s.root
	for _, seg := range path[:len(path)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			return
		}
		node = child
	}
	delete(node, path[len(path)-1])
}

// Map returns a deep copy of the nested value tree.
func (s *ValueStore) Map() map[string]any {
	return copyTree(s.root)
}

// Flatten emits the dot-joined flat view of the tree. Empty objects
// disappear: only leaves carry values.
func (s *ValueStore) Flatten() map[string]any {
	flat := make(map[string]any)
	flattenInto(flat, "", s.root)
	return flat
}

func flattenInto(flat map[string]any, prefix string, node map[string]any) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if child, ok := value.(map[string]any); ok {
			flattenInto(flat, full, child)
			continue
		}
		flat[full] = value
	}
}

func copyTree(node map[string]any) map[string]any {
	out := make(map[string]any, len(node))
	for key, value := range node {
		if child, ok := value.(map[string]any); ok {
			out[key] = copyTree(child)
			continue
		}
		out[key] = value
	}
	return out
}
