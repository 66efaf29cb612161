// Package filter provides the built-in content filters and the name
// registry the publishing core resolves them through.
package filter

import (
	"sync"

	"github.com/inkpad-dev/inkpad/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.FilterRegistry = (*Registry)(nil)

// Registry maps filter names to implementations. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	filters map[string]driven.ContentFilter
}

// NewRegistry returns a registry pre-populated with the built-in filters:
// "markdown" and "sanitize".
func NewRegistry() *Registry {
	r := &Registry{filters: make(map[string]driven.ContentFilter)}
	r.Register("markdown", NewMarkdownFilter())
	r.Register("sanitize", NewSanitizeFilter())
	return r
}

// Register adds or replaces a filter under the given name.
func (r *Registry) Register(name string, f driven.ContentFilter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[name] = f
}

// Lookup resolves a filter by name.
func (r *Registry) Lookup(name string) (driven.ContentFilter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.filters[name]
	return f, ok
}
