// Package surface turns an OpenAPI-like document into a normalized
// catalogue of CRUD operations per inferred resource.
package surface

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Operation is one HTTP-verb-bound endpoint definition.
type Operation struct {
	Method        string          `json:"method"`
	Path          string          `json:"path"`
	PathParams    []string        `json:"path_params,omitempty"`
	QueryParams   []string        `json:"query_params,omitempty"`
	RequestSchema json.RawMessage `json:"request_schema,omitempty"`
}

// ResourceOperations groups the CRUD operations inferred for one resource.
// A resource may expose more than one create/update/delete operation when
// distinct physical paths map to the same name; element 0 is the canonical
// one (fewest path-parameter segments, then first appearance).
type ResourceOperations struct {
	ResourceName string      `json:"resource_name"`
	List         *Operation  `json:"list,omitempty"`
	Get          *Operation  `json:"get,omitempty"`
	Create       []Operation `json:"create,omitempty"`
	Update       []Operation `json:"update,omitempty"`
	Delete       []Operation `json:"delete,omitempty"`
}

// ── OpenAPI document shapes (only what the analyzer consumes) ───────────────

type pathItem struct {
	Get        *operationObject  `json:"get"`
	Post       *operationObject  `json:"post"`
	Put        *operationObject  `json:"put"`
	Patch      *operationObject  `json:"patch"`
	Delete     *operationObject  `json:"delete"`
	Parameters []parameterObject `json:"parameters"`
}

type operationObject struct {
	Parameters  []parameterObject `json:"parameters"`
	RequestBody *requestBody      `json:"requestBody"`
}

type parameterObject struct {
	Name string `json:"name"`
	In   string `json:"in"`
}

type requestBody struct {
	Content map[string]mediaType `json:"content"`
}

type mediaType struct {
	Schema json.RawMessage `json:"schema"`
}

var (
	paramSegment   = regexp.MustCompile(`^\{[^}]+\}$`)
	versionSegment = regexp.MustCompile(`^v\d+$`)
)

// Analyze parses doc and returns one ResourceOperations per inferred
// resource, ordered by first appearance in the document's paths object.
func Analyze(doc []byte) ([]ResourceOperations, error) {
	paths, order, err := orderedPaths(doc)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*ResourceOperations)
	var nameOrder []string

	for _, path := range order {
		item := paths[path]
		name := resourceName(path)
		if name == "" {
			log.Warn().Str("path", path).Msg("surface: path yields no resource name, skipped")
			continue
		}

		res, ok := byName[name]
		if !ok {
			res = &ResourceOperations{ResourceName: name}
			byName[name] = res
			nameOrder = append(nameOrder, name)
		}

		for _, v := range []struct {
			method string
			op     *operationObject
		}{
			{"GET", item.Get},
			{"POST", item.Post},
			{"PUT", item.Put},
			{"PATCH", item.Patch},
			{"DELETE", item.Delete},
		} {
			if v.op == nil {
				continue
			}
			op := buildOperation(v.method, path, item, v.op)
			classify(res, op)
		}
	}

	out := make([]ResourceOperations, 0, len(nameOrder))
	for _, name := range nameOrder {
		res := byName[name]
		canonicalize(res)
		out = append(out, *res)
	}
	return out, nil
}

// orderedPaths decodes the paths object preserving key declaration order,
// which encoding/json maps would discard.
func orderedPaths(doc []byte) (map[string]pathItem, []string, error) {
	var envelope struct {
		Paths json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(doc, &envelope); err != nil {
		return nil, nil, fmt.Errorf("parsing document: %w", err)
	}
	if len(envelope.Paths) == 0 {
		return nil, nil, fmt.Errorf("document has no paths object")
	}

	dec := json.NewDecoder(bytes.NewReader(envelope.Paths))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing paths: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("paths is not an object")
	}

	paths := make(map[string]pathItem)
	var order []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("parsing paths: %w", err)
		}
		key := keyTok.(string)
		var item pathItem
		if err := dec.Decode(&item); err != nil {
			return nil, nil, fmt.Errorf("parsing path %s: %w", key, err)
		}
		paths[key] = item
		order = append(order, key)
	}
	return paths, order, nil
}

// resourceName infers a resource name from a path template: parameter
// segments collapse away, a leading "api" and version segments are
// stripped, and the remaining segments join with underscores.
func resourceName(path string) string {
	var kept []string
	for i, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" || paramSegment.MatchString(seg) {
			continue
		}
		if i == 0 && seg == "api" {
			continue
		}
		if versionSegment.MatchString(seg) && len(kept) == 0 {
			continue
		}
		kept = append(kept, seg)
	}
	return strings.Join(kept, "_")
}

// buildOperation assembles an Operation from the path template plus the
// declared parameters (path-level parameters merge with operation-level).
func buildOperation(method, path string, item pathItem, op *operationObject) Operation {
	out := Operation{Method: method, Path: path}

	// Template placeholders come first, in template order.
	seen := make(map[string]bool)
	for _, seg := range strings.Split(path, "/") {
		if paramSegment.MatchString(seg) {
			name := strings.Trim(seg, "{}")
			if !seen[name] {
				out.PathParams = append(out.PathParams, name)
				seen[name] = true
			}
		}
	}

	params := append(append([]parameterObject{}, item.Parameters...), op.Parameters...)
	for _, p := range params {
		switch p.In {
		case "path":
			if !seen[p.Name] {
				out.PathParams = append(out.PathParams, p.Name)
				seen[p.Name] = true
			}
		case "query":
			if !containsString(out.QueryParams, p.Name) {
				out.QueryParams = append(out.QueryParams, p.Name)
			}
		}
	}

	if (method == "POST" || method == "PUT" || method == "PATCH") && op.RequestBody != nil {
		out.RequestSchema = firstJSONSchema(op.RequestBody)
	}
	return out
}

// firstJSONSchema returns the first application/json body schema, if any.
func firstJSONSchema(rb *requestBody) json.RawMessage {
	if mt, ok := rb.Content["application/json"]; ok {
		return mt.Schema
	}
	// Any content type whose schema is JSON-shaped counts as "first found".
	var keys []string
	for k := range rb.Content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(k, "json") {
			return rb.Content[k].Schema
		}
	}
	return nil
}

// classify routes an operation into the list/get/create/update/delete slot.
// A GET whose path ends in a parameter segment is a get, otherwise a list.
func classify(res *ResourceOperations, op Operation) {
	switch op.Method {
	case "GET":
		if trailingParam(op.Path) {
			if res.Get == nil || paramCount(op.Path) < paramCount(res.Get.Path) {
				cp := op
				res.Get = &cp
			}
		} else {
			if res.List == nil || paramCount(op.Path) < paramCount(res.List.Path) {
				cp := op
				res.List = &cp
			}
		}
	case "POST":
		res.Create = append(res.Create, op)
	case "PUT", "PATCH":
		res.Update = append(res.Update, op)
	case "DELETE":
		res.Delete = append(res.Delete, op)
	}
}

// canonicalize orders multi-operation slots so the canonical entry (fewest
// parameter segments, first appearance breaking ties) sits at index 0.
func canonicalize(res *ResourceOperations) {
	sort.SliceStable(res.Create, func(i, j int) bool {
		return paramCount(res.Create[i].Path) < paramCount(res.Create[j].Path)
	})
	sort.SliceStable(res.Update, func(i, j int) bool {
		return paramCount(res.Update[i].Path) < paramCount(res.Update[j].Path)
	})
	sort.SliceStable(res.Delete, func(i, j int) bool {
		return paramCount(res.Delete[i].Path) < paramCount(res.Delete[j].Path)
	})
}

func trailingParam(path string) bool {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) == 0 {
		return false
	}
	return paramSegment.MatchString(segs[len(segs)-1])
}

func paramCount(path string) int {
	n := 0
	for _, seg := range strings.Split(path, "/") {
		if paramSegment.MatchString(seg) {
			n++
		}
	}
	return n
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
