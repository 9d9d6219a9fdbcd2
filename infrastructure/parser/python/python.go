package python

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/depscout/depscout/domain"
	"github.com/depscout/depscout/version"
)

const (
	parserName   = "python"
	manifestName = "requirements.txt"
	ecosystem    = "pypi"
)

var (
	requirementPattern = regexp.MustCompile(`^([a-zA-Z0-9_\-.]+)(.*)$`)
	leadingOperators   = regexp.MustCompile(`^[><=~!]+`)
)

// Parser reads pip requirements files.
type Parser struct{}

// New creates the Python requirements parser.
func New() domain.Parser { return &Parser{} }

func (p *Parser) Name() string { return parserName }

func (p *Parser) Patterns() []string { return []string{manifestName} }

// Parse extracts pinned requirements. Editable installs and option lines are
// ignored; constraints that carry no extractable numeric version become
// skip reasons.
func (p *Parser) Parse(path string) ([]domain.Dependency, []string) {
	if filepath.Base(path) != manifestName {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []string{fmt.Sprintf("%s not found or is not a file", path)}
	}

	absPath, absErr := filepath.Abs(path)
	if absErr != nil {
		absPath = path
	}

	var dependencies []domain.Dependency
	var skipped []string

	for lineNum, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		lineNum++

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		// Environment markers ("; python_version < ...") never affect the
		// declared version.
		depSpec := strings.TrimSpace(strings.SplitN(trimmed, ";", 2)[0])

		if strings.HasPrefix(depSpec, "-e ") || strings.HasPrefix(depSpec, "--") {
			continue
		}

		match := requirementPattern.FindStringSubmatch(depSpec)
		if match == nil {
			skipped = append(skipped, fmt.Sprintf("Line %d invalid in %s: %s", lineNum, absPath, trimmed))
			continue
		}

		pkg := match[1]
		constraint := strings.TrimSpace(match[2])

		cleaned := cleanVersion(constraint)
		if cleaned == "" {
			if constraint != "" {
				skipped = append(skipped, fmt.Sprintf(
					"Line %d unrecognized version '%s' for %s in %s", lineNum, constraint, pkg, absPath))
			} else {
				skipped = append(skipped, fmt.Sprintf(
					"Line %d skipped (no version) for %s in %s", lineNum, pkg, absPath))
			}
			continue
		}

		dependencies = append(dependencies, domain.Dependency{
			Ecosystem:         ecosystem,
			Library:           pkg,
			File:              absPath,
			VersionConstraint: constraint,
			Version:           cleaned,
			Resolved:          cleaned,
		})
	}

	return dependencies, skipped
}

// cleanVersion strips comparison operators from a constraint and reduces it
// to its first dotted-numeric run, e.g. ">=2.25.1,<3" -> "2.25.1".
func cleanVersion(constraint string) string {
	if constraint == "" {
		return ""
	}
	cleaned := strings.TrimSpace(leadingOperators.ReplaceAllString(constraint, ""))
	return version.NumericRun(cleaned)
}
