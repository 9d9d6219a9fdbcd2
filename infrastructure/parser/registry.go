package parser

import (
	"github.com/depscout/depscout/domain"
)

// Registry manages all registered manifest parser implementations. Parsers
// are registered at startup; there is no dynamic loading, so a missing
// parser is a programming error rather than a runtime failure mode.
type Registry struct {
	order   []string
	parsers map[string]domain.Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]domain.Parser),
	}
}

// Register adds a parser under its name. Registration order is preserved so
// that aggregation output stays deterministic.
func (r *Registry) Register(p domain.Parser) {
	if _, exists := r.parsers[p.Name()]; !exists {
		r.order = append(r.order, p.Name())
	}
	r.parsers[p.Name()] = p
}

// Get returns the parser with the given name, or nil if not registered.
func (r *Registry) Get(name string) domain.Parser {
	return r.parsers[name]
}

// All returns every registered parser in registration order.
func (r *Registry) All() []domain.Parser {
	result := make([]domain.Parser, 0, len(r.parsers))
	for _, name := range r.order {
		result = append(result, r.parsers[name])
	}
	return result
}

// Names returns the list of registered parser names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
