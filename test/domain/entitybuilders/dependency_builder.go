package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/depscout/depscout/domain"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// DependencyBuilder helps create test dependencies with a fluent interface.
type DependencyBuilder struct {
	*testkit.BaseBuilder
	ecosystem string
	library   string
	file      string
	version   string
}

// NewDependencyBuilder creates a new dependency builder with sensible defaults.
func NewDependencyBuilder() *DependencyBuilder {
	return &DependencyBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		ecosystem:   "pypi",
		library:     "requests",
		file:        "/repo/requirements.txt",
		version:     "2.19.0",
	}
}

// WithEcosystem sets the parser ecosystem tag.
func (b *DependencyBuilder) WithEcosystem(ecosystem string) *DependencyBuilder {
	b.ecosystem = ecosystem
	return b
}

// WithLibrary sets the library name.
func (b *DependencyBuilder) WithLibrary(library string) *DependencyBuilder {
	b.library = library
	return b
}

// WithFile sets the manifest file path.
func (b *DependencyBuilder) WithFile(file string) *DependencyBuilder {
	b.file = file
	return b
}

// WithVersion sets the resolved version.
func (b *DependencyBuilder) WithVersion(version string) *DependencyBuilder {
	b.version = version
	return b
}

// Build creates the dependency (satisfies testkit.Builder interface).
func (b *DependencyBuilder) Build() interface{} {
	return b.BuildDependency()
}

// BuildDependency creates the dependency with a concrete return type.
func (b *DependencyBuilder) BuildDependency() domain.Dependency {
	return domain.Dependency{
		Ecosystem:         b.ecosystem,
		Library:           b.library,
		File:              b.file,
		VersionConstraint: b.version,
		Version:           b.version,
		Resolved:          b.version,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *DependencyBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.ecosystem = "pypi"
	b.library = "requests"
	b.file = "/repo/requirements.txt"
	b.version = "2.19.0"
	return b
}

// Clone creates a deep copy of the DependencyBuilder.
func (b *DependencyBuilder) Clone() testkit.Builder {
	return &DependencyBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		ecosystem:   b.ecosystem,
		library:     b.library,
		file:        b.file,
		version:     b.version,
	}
}
