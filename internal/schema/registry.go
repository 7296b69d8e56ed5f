package schema

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// modelKey is the composite lookup key for a registered model.
type modelKey struct {
	Path  string
	Model string
}

// Registry is a static keyed lookup of pre-parsed ModelSchemas. It is the
// offline fallback that lets the engine function without a live schema
// service: pure lookup, no network.
type Registry struct {
	mu     sync.RWMutex
	models map[modelKey]*ModelSchema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[modelKey]*ModelSchema)}
}

// Register adds a parsed model under (resourcePath, model.Name). Last
// registration wins; models are treated as immutable after registration.
func (r *Registry) Register(resourcePath string, m *ModelSchema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[modelKey{Path: resourcePath, Model: m.Name}] = m
}

// Get returns the model registered under (resourcePath, modelName).
func (r *Registry) Get(resourcePath, modelName string) (*ModelSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[modelKey{Path: resourcePath, Model: modelName}]
	return m, ok
}

// resourceEntry maps a logical resource name to its registry coordinates.
type resourceEntry struct {
	Path      string
	BaseModel string
}

// resourceTable is the fixed resource-name mapping for the console's
// resources. Unknown names resolve to absent, never an error.
var resourceTable = map[string]resourceEntry{
	"users":          {Path: "/user", BaseModel: "User"},
	"applications":   {Path: "/application", BaseModel: "Application"},
	"schedules":      {Path: "/schedule", BaseModel: "Schedule"},
	"inventories":    {Path: "/inventory", BaseModel: "Inventory"},
	"vault_keys":     {Path: "/vault_key", BaseModel: "VaultKey"},
	"metadata_specs": {Path: "/metadata_spec", BaseModel: "MetadataSpec"},
}

// ResourceSchema resolves the model schema to use for an operation against
// a named resource. For "create" and "update" it first tries the
// operation-specific request model ({Base}CreateRequest / {Base}UpdateRequest)
// and falls back to the bare base model when that is not registered.
func (r *Registry) ResourceSchema(resourceName, operation string) (*ModelSchema, bool) {
	entry, ok := resourceTable[resourceName]
	if !ok {
		log.Warn().Str("resource", resourceName).
			Msg("schema: unknown resource name, no schema resolved")
		return nil, false
	}

	var candidate string
	switch operation {
	case "create":
		candidate = entry.BaseModel + "CreateRequest"
	case "update":
		candidate = entry.BaseModel + "UpdateRequest"
	}
	if candidate != "" {
		if m, ok := r.Get(entry.Path, candidate); ok {
			return m, true
		}
	}
	return r.Get(entry.Path, entry.BaseModel)
}
