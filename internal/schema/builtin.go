package schema

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// builtinSources holds the CUE definitions for the console's own resources,
// keyed by resource path. Each source may define the base model plus
// operation-specific request models.
var builtinSources = map[string][]string{
	"/user":          {"User", "UserCreateRequest", "UserUpdateRequest"},
	"/application":   {"Application", "ApplicationCreateRequest"},
	"/schedule":      {"Schedule"},
	"/inventory":     {"Inventory"},
	"/vault_key":     {"VaultKey"},
	"/metadata_spec": {"MetadataSpec"},
}

const builtinCUE = `
#User: {
	id:         string @readonly()
	username:   string
	email:      string @pattern("^[^@]+@[^@]+$")
	fullName?:  string
	state:      "ACTIVE" | "DISABLED" | "LOCKED"
	roles?: [...string]
	metadata?: {[string]: string}
	createdAt?: string @readonly()
}

#UserCreateRequest: {
	username:         string
	email:            string @pattern("^[^@]+@[^@]+$")
	fullName?:        string
	password:         string
	confirmPassword:  string @uionly()
	roles?: [...string]
}

#UserUpdateRequest: {
	email?:    string @notnull(groups="update") @pattern("^[^@]+@[^@]+$")
	fullName?: string
	state?:    "ACTIVE" | "DISABLED" | "LOCKED"
	roles?: [...string]
}

#Application: {
	id:          string @readonly()
	name:        string
	description?: string
	state:       "ACTIVE" | "DISABLED" | "PENDING" | "DELETED"
	owner?:      string
	labels?: [...string]
	config?: {[string]: string}
}

#ApplicationCreateRequest: {
	name:         string
	description?: string
	owner?:       string
	labels?: [...string]
}

#Schedule: {
	id:       string @readonly()
	name:     string
	cron:     string
	state:    "SCHEDULED" | "RUNNING" | "FINISHED" | "FAILED"
	target?:  string
	enabled:  bool
	retries?: int
}

#Inventory: {
	id:        string @readonly()
	name:      string
	kind:      "HOST" | "CLUSTER" | "SERVICE"
	address?:  string @showwhen("kind", "HOST|SERVICE")
	capacity?: number
	tags?: [...string]
	attributes?: {[string]: string}
}

#VaultKey: {
	id:        string @readonly()
	name:      string
	usage:     "SIGNING" | "ENCRYPTION" | "AUTHENTICATION"
	algorithm: string
	enabled:   bool
	notBefore?: string
	notAfter?:  string
}

#MetadataSpec: {
	id:    string @readonly()
	name:  string
	properties?: [...{...}]
}
`

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry pre-populated with the
// builtin console models. Parse failures surface as logged warnings and a
// missing model, never a panic.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		parser := NewParser()
		for path, models := range builtinSources {
			for _, name := range models {
				m, err := parser.Parse(name, builtinCUE)
				if err != nil {
					log.Warn().Err(err).Str("model", name).
						Msg("schema: builtin model failed to parse")
					continue
				}
				defaultRegistry.Register(path, m)
			}
		}
	})
	return defaultRegistry
}
