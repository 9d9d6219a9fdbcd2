package domain

// Parser turns one manifest file into dependency records and skip reasons.
// Implementations never return an error: unreadable files and malformed
// entries become human-readable skip strings, and a file whose name does not
// match the parser's expected manifest yields (nil, nil) so that every parser
// can safely be invoked against every discovered file.
type Parser interface {
	// Name returns the ecosystem identifier (e.g. "golang", "maven").
	Name() string

	// Patterns returns the file basename patterns this parser discovers
	// manifests by (e.g. "go.mod", "build.gradle*").
	Patterns() []string

	// Parse reads the manifest at path and returns the dependencies it
	// declares plus one skip reason per entry that could not be resolved.
	Parse(path string) ([]Dependency, []string)
}
