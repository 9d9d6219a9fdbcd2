// Package latest resolves the newest published version of a library from its
// ecosystem's public registry.
package latest

import "github.com/depscout/depscout/domain"

// Registry maps canonical ecosystem names to their latest-version source.
type Registry struct {
	sources map[string]domain.Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]domain.Source)}
}

// Register adds a source under its own ecosystem name, replacing any previous
// registration.
func (r *Registry) Register(source domain.Source) {
	r.sources[source.Name()] = source
}

// Get returns the source for a canonical ecosystem name.
func (r *Registry) Get(ecosystem string) (domain.Source, bool) {
	source, found := r.sources[ecosystem]
	return source, found
}

// DefaultRegistry wires the sources for every supported ecosystem.
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(NewGoProxySource(""))
	registry.Register(NewMavenSource(""))
	registry.Register(NewNPMSource(""))
	registry.Register(NewPyPISource(""))
	return registry
}
