package npm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/depscout/depscout/domain"
)

const (
	parserName   = "npm"
	manifestName = "package.json"
	ecosystem    = "npm"

	// Leading range operators stripped from declared versions.
	rangeOperators = "^~>=< "
)

// dependencySections lists the manifest sections read, in a fixed order so
// output stays deterministic.
var dependencySections = []string{
	"dependencies",
	"devDependencies",
	"peerDependencies",
	"optionalDependencies",
}

// Parser reads package.json manifests.
type Parser struct{}

// New creates the npm manifest parser.
func New() domain.Parser { return &Parser{} }

func (p *Parser) Name() string { return parserName }

func (p *Parser) Patterns() []string { return []string{manifestName} }

// Parse extracts dependencies from all four dependency sections. Git and
// file source specs cannot be looked up by version and are skipped.
func (p *Parser) Parse(path string) ([]domain.Dependency, []string) {
	if filepath.Base(path) != manifestName {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []string{fmt.Sprintf("Error parsing %s: %v", path, err)}
	}

	var manifest map[string]json.RawMessage
	if unmarshalErr := json.Unmarshal(data, &manifest); unmarshalErr != nil {
		return nil, []string{fmt.Sprintf("Error parsing %s: %v", path, unmarshalErr)}
	}

	absPath, absErr := filepath.Abs(path)
	if absErr != nil {
		absPath = path
	}

	var dependencies []domain.Dependency
	var skipped []string

	for _, section := range dependencySections {
		raw, ok := manifest[section]
		if !ok {
			continue
		}

		var entries map[string]string
		if unmarshalErr := json.Unmarshal(raw, &entries); unmarshalErr != nil {
			skipped = append(skipped, fmt.Sprintf("Error parsing %s section in %s: %v", section, path, unmarshalErr))
			continue
		}

		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			declared := strings.TrimSpace(entries[name])
			cleaned := strings.TrimLeft(declared, rangeOperators)

			if cleaned == "" || strings.HasPrefix(cleaned, "git") || strings.HasPrefix(cleaned, "file") {
				skipped = append(skipped, fmt.Sprintf("%s with unsupported version '%s' in %s", name, declared, path))
				continue
			}

			dependencies = append(dependencies, domain.Dependency{
				Ecosystem:         ecosystem,
				Library:           name,
				File:              absPath,
				VersionConstraint: declared,
				Version:           cleaned,
				Resolved:          cleaned,
			})
		}
	}

	return dependencies, skipped
}
