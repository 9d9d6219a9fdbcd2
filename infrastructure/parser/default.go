package parser

import (
	"github.com/depscout/depscout/infrastructure/parser/golang"
	"github.com/depscout/depscout/infrastructure/parser/gradle"
	"github.com/depscout/depscout/infrastructure/parser/maven"
	"github.com/depscout/depscout/infrastructure/parser/npm"
	"github.com/depscout/depscout/infrastructure/parser/python"
)

// DefaultRegistry wires every built-in manifest parser.
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(golang.New())
	registry.Register(maven.New())
	registry.Register(gradle.New())
	registry.Register(npm.New())
	registry.Register(python.New())
	return registry
}
