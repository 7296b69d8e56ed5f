// Package validate checks JSON value trees against model schemas and
// metadata spec properties. It reports findings as ordered message lists
// and never panics or returns an error: syntactic JSON failure is the
// caller's earlier-stage concern, reported separately.
package validate

import (
	"fmt"
	"strings"

	"github.com/adminforge/adminforge/internal/metaspec"
	"github.com/adminforge/adminforge/internal/schema"
)

// Model validates a decoded JSON object against a ModelSchema. Checks run
// per field in schema order: a required-and-absent field yields one error
// and skips the remaining checks for that field; array-ness is checked
// before any primitive check and array contents are not typed
// element-wise; enum fields check membership.
func Model(m *schema.ModelSchema, value map[string]any) []string {
	var errs []string
	for _, f := range m.Fields {
		v, present := value[f.Name]
		if !present || v == nil {
			if f.Required {
				errs = append(errs, fmt.Sprintf("field %q is required", f.Name))
			}
			continue
		}

		if f.IsArray {
			if _, ok := v.([]any); !ok {
				errs = append(errs, fmt.Sprintf("field %q must be an array", f.Name))
			}
			continue
		}
		if f.IsMap {
			if _, ok := v.(map[string]any); !ok {
				errs = append(errs, fmt.Sprintf("field %q must be an object", f.Name))
			}
			continue
		}

		if msg := checkScalar(f, v); msg != "" {
			errs = append(errs, msg)
		}
	}
	return errs
}

func checkScalar(f schema.FieldSchema, v any) string {
	switch f.Type {
	case schema.FieldString:
		if _, ok := v.(string); !ok {
			return fmt.Sprintf("field %q must be a string", f.Name)
		}
	case schema.FieldNumber:
		if !isJSONNumber(v) {
			return fmt.Sprintf("field %q must be a number", f.Name)
		}
	case schema.FieldBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Sprintf("field %q must be a boolean", f.Name)
		}
	case schema.FieldObject:
		if _, ok := v.(map[string]any); !ok {
			return fmt.Sprintf("field %q must be an object", f.Name)
		}
	case schema.FieldEnum:
		s, ok := v.(string)
		if !ok {
			return fmt.Sprintf("field %q must be a string", f.Name)
		}
		for _, allowed := range f.EnumValues {
			if s == allowed {
				return ""
			}
		}
		return fmt.Sprintf("field %q must be one of [%s]", f.Name, strings.Join(f.EnumValues, ", "))
	}
	return ""
}

// Leaf validates one metadata spec leaf value against its declared type.
// OBJECT properties are not leaves; their members validate individually.
func Leaf(p metaspec.Property, v any) []string {
	if v == nil {
		if p.Required {
			return []string{fmt.Sprintf("property %q is required", p.Name)}
		}
		return nil
	}

	switch p.Type {
	case metaspec.TypeString:
		if _, ok := v.(string); !ok {
			return []string{fmt.Sprintf("property %q must be a string", p.Name)}
		}
	case metaspec.TypeNumber:
		if !isJSONNumber(v) {
			return []string{fmt.Sprintf("property %q must be a number", p.Name)}
		}
	case metaspec.TypeBoolean:
		if _, ok := v.(bool); !ok {
			return []string{fmt.Sprintf("property %q must be a boolean", p.Name)}
		}
	case metaspec.TypeArray:
		switch v.(type) {
		case []any, string:
			// A comma-separated string form is accepted at the boundary.
		default:
			return []string{fmt.Sprintf("property %q must be an array", p.Name)}
		}
	case metaspec.TypeTags:
		if _, ok := v.(string); !ok {
			return []string{fmt.Sprintf("property %q must be a comma-separated string", p.Name)}
		}
	case metaspec.TypeObject:
		if _, ok := v.(map[string]any); !ok {
			return []string{fmt.Sprintf("property %q must be an object", p.Name)}
		}
	}
	return nil
}

// isJSONNumber accepts the numeric shapes a JSON decode can produce.
func isJSONNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		return true
	}
	return false
}
