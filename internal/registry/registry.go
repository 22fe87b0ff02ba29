// Package registry maps module keys to the components that build a step's
// module views.
//
// A Registry is an explicit object created once at startup and handed to
// whoever needs lookups:
//
//	modules := registry.New()
//	registry.RegisterDefaults(modules, calculator)
//
//	def, ok := modules.Get("solution_selection")
//
// Registering an existing key overwrites it (last write wins). A missing key
// is a soft failure; callers skip the module and log.
package registry

import (
	"sort"
	"sync"
	"time"

	"merchant-onboarding/internal/onboarding"
)

// Component builds the view payload of a module for the current aggregate.
type Component interface {
	Build(data *onboarding.Data, cfg map[string]any) any
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(data *onboarding.Data, cfg map[string]any) any

// Build calls f.
func (f ComponentFunc) Build(data *onboarding.Data, cfg map[string]any) any {
	return f(data, cfg)
}

// ConfigProperty describes one accepted key of a module's configuration map.
type ConfigProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
}

// ModuleDefinition is a registered module.
type ModuleDefinition struct {
	Key          string                    `json:"key"`
	Name         string                    `json:"name"`
	Category     string                    `json:"category"`
	Description  string                    `json:"description,omitempty"`
	ConfigSchema map[string]ConfigProperty `json:"configSchema,omitempty"`
	Component    Component                 `json:"-"`
}

// ModuleMetadata tracks registration and usage of a module.
type ModuleMetadata struct {
	RegisteredAt time.Time `json:"registered_at"`
	LastUsed     time.Time `json:"last_used"`
	UsageCount   int64     `json:"usage_count"`
}

// Registry is a thread-safe in-memory module map.
type Registry struct {
	modules  map[string]ModuleDefinition
	metadata map[string]*ModuleMetadata
	mu       sync.RWMutex
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		modules:  make(map[string]ModuleDefinition),
		metadata: make(map[string]*ModuleMetadata),
	}
}

// Register stores def under key, replacing any previous definition.
// def.Key is forced to key.
func (r *Registry) Register(key string, def ModuleDefinition) {
	def.Key = key

	r.mu.Lock()
	defer r.mu.Unlock()

	r.modules[key] = def
	r.metadata[key] = &ModuleMetadata{RegisteredAt: time.Now()}
}

// Get returns the module registered under key.
func (r *Registry) Get(key string) (ModuleDefinition, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.modules[key]
	if ok {
		if md := r.metadata[key]; md != nil {
			md.LastUsed = time.Now()
			md.UsageCount++
		}
	}
	return def, ok
}

// GetAll returns every module sorted by key.
func (r *Registry) GetAll() []ModuleDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ModuleDefinition, 0, len(r.modules))
	for _, def := range r.modules {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// GetByCategory returns the modules of one category sorted by key.
func (r *Registry) GetByCategory(category string) []ModuleDefinition {
	var out []ModuleDefinition
	for _, def := range r.GetAll() {
		if def.Category == category {
			out = append(out, def)
		}
	}
	return out
}

// Categories returns the distinct categories, sorted.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, def := range r.modules {
		seen[def.Category] = true
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Metadata returns a copy of the usage metadata of key.
func (r *Registry) Metadata(key string) (ModuleMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	md, ok := r.metadata[key]
	if !ok {
		return ModuleMetadata{}, false
	}
	return *md, true
}

// Unregister removes key. Removing a missing key is a no-op.
func (r *Registry) Unregister(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.modules, key)
	delete(r.metadata, key)
}

// Clear removes every module.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.modules = make(map[string]ModuleDefinition)
	r.metadata = make(map[string]*ModuleMetadata)
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}
