package tool

import (
	"errors"
	"sort"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

// ErrNotFound is returned for unknown tool names.
var ErrNotFound = errors.New("tool not found")

// Registry holds tool definitions and their credentials.
type Registry struct {
	mu      sync.RWMutex
	defs    map[string]types.ToolDefinition
	builtin map[string]bool
	secrets map[string]string
}

// NewRegistry creates a registry holding the built-in tools.
func NewRegistry() *Registry {
	r := &Registry{
		defs:    make(map[string]types.ToolDefinition),
		builtin: make(map[string]bool),
		secrets: make(map[string]string),
	}
	for _, def := range Builtins() {
		r.defs[def.Name] = def
		r.builtin[def.Name] = true
	}
	return r
}

// Put validates and stores def, replacing any tool of the same name.
func (r *Registry) Put(def types.ToolDefinition) (types.ToolDefinition, error) {
	def, err := Normalize(def)
	if err != nil {
		return def, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
	return def, nil
}

// Get returns the definition called name.
func (r *Registry) Get(name string) (types.ToolDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return types.ToolDefinition{}, ErrNotFound
	}
	return def, nil
}

// IsBuiltin reports whether name is one of the built-in tools.
func (r *Registry) IsBuiltin(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.builtin[name]
}

// List returns all definitions sorted by name.
func (r *Registry) List() []types.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.ToolDefinition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetSecret stores the credential for name. The tool need not be
// registered yet.
func (r *Registry) SetSecret(name, secret string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.secrets[name] = secret
}

// Secret returns the credential for name.
func (r *Registry) Secret(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.secrets[name]
	return s, ok && s != ""
}

// Suggest returns the registered name closest to name, if any is within
// a third of its length.
func (r *Registry) Suggest(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best, bestDist := "", -1
	for candidate := range r.defs {
		d := levenshtein.ComputeDistance(name, candidate)
		if bestDist < 0 || d < bestDist || (d == bestDist && candidate < best) {
			best, bestDist = candidate, d
		}
	}
	limit := len(name)/3 + 1
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}
