package application

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"

	logger "github.com/sirupsen/logrus"

	"github.com/depscout/depscout/domain"
	parserPkg "github.com/depscout/depscout/infrastructure/parser"
)

// Aggregator walks a directory tree, matches files against the registered
// parsers' manifest patterns and collects every declared dependency.
type Aggregator struct {
	parsers *parserPkg.Registry
}

// NewAggregator creates an aggregator over the given parser registry.
func NewAggregator(parsers *parserPkg.Registry) *Aggregator {
	return &Aggregator{parsers: parsers}
}

// manifestMatch pairs a discovered manifest file with the parser that owns it.
type manifestMatch struct {
	path   string
	parser domain.Parser
}

// Collect parses every manifest under root and returns the dependencies and
// skip reasons in discovery order.
func (a *Aggregator) Collect(root string) ([]domain.Dependency, []string, error) {
	matches, err := a.discover(root)
	if err != nil {
		return nil, nil, err
	}

	var dependencies []domain.Dependency
	var skips []string
	for _, match := range matches {
		logger.Debugf("Parsing %s with %s parser", match.path, match.parser.Name())
		records, reasons := match.parser.Parse(match.path)
		dependencies = append(dependencies, records...)
		skips = append(skips, reasons...)
	}
	return dependencies, skips, nil
}

// Manifests returns the paths of every recognized manifest under root, in
// discovery order.
func (a *Aggregator) Manifests(root string) ([]string, error) {
	matches, err := a.discover(root)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(matches))
	for _, match := range matches {
		paths = append(paths, match.path)
	}
	return paths, nil
}

func (a *Aggregator) discover(root string) ([]manifestMatch, error) {
	var matches []manifestMatch

	err := filepath.WalkDir(root, func(filePath string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logger.Warnf("Skipping %s: %v", filePath, walkErr)
			return nil
		}
		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		for _, p := range a.parsers.All() {
			if matchesAny(p.Patterns(), entry.Name()) {
				matches = append(matches, manifestMatch{path: filePath, parser: p})
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return matches, nil
}

func matchesAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if matched, err := path.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}
