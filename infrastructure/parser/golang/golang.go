package golang

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/depscout/depscout/domain"
)

const (
	parserName   = "golang"
	manifestName = "go.mod"
	ecosystem    = "go"
)

// Replace directives come in three shapes, tried in this order:
//
//	old old_ver => new new_ver   (full)
//	old => new new_ver           (simple)
//	old => new                   (minimal — no version, never enough to scan)
var (
	fullReplacePattern    = regexp.MustCompile(`^(\S+)\s+(\S+)\s+=>\s+(\S+)\s+(\S+)$`)
	simpleReplacePattern  = regexp.MustCompile(`^(\S+)\s+=>\s+(\S+)\s+(\S+)$`)
	minimalReplacePattern = regexp.MustCompile(`^(\S+)\s+=>\s+(\S+)$`)
	hasDigit              = regexp.MustCompile(`\d`)
)

// Parser reads go.mod files. It scans line by line instead of using a module
// file parser so that a single malformed line degrades to a skip reason
// without rejecting the rest of the file.
type Parser struct{}

// New creates the Go module parser.
func New() domain.Parser { return &Parser{} }

func (p *Parser) Name() string { return parserName }

func (p *Parser) Patterns() []string { return []string{manifestName} }

// Parse extracts required and replaced modules from a go.mod file.
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
	inRequireBlock := false

	for lineNum, line := range strings.Split(string(data), "\n") {
		stripped := strings.TrimSpace(line)
		lineNum++ // report 1-based line numbers

		if stripped == "" || strings.HasPrefix(stripped, "//") {
			continue
		}

		if strings.HasPrefix(stripped, "require (") {
			inRequireBlock = true
			continue
		}
		if inRequireBlock && stripped == ")" {
			inRequireBlock = false
			continue
		}

		if strings.HasPrefix(stripped, "replace ") {
			dep, skip := parseReplace(strings.TrimPrefix(stripped, "replace "), absPath, lineNum, stripped)
			if skip != "" {
				skipped = append(skipped, skip)
				continue
			}
			dependencies = append(dependencies, dep)
			continue
		}

		singleLine := false
		if strings.HasPrefix(stripped, "require ") {
			stripped = strings.TrimPrefix(stripped, "require ")
			singleLine = true
		}

		if !inRequireBlock && !singleLine {
			// module, go, toolchain, exclude and similar directives carry no
			// dependency information.
			continue
		}

		parts := strings.Fields(stripped)
		if len(parts) < 2 {
			skipped = append(skipped, fmt.Sprintf("Line %d invalid in %s: '%s'", lineNum, absPath, stripped))
			continue
		}

		name := parts[0]
		moduleVersion := strings.Trim(parts[1], "()[]")

		if !hasDigit.MatchString(moduleVersion) {
			skipped = append(skipped, fmt.Sprintf("Line %d skipped (no digit in version) in %s: '%s'", lineNum, absPath, stripped))
			continue
		}

		dependencies = append(dependencies, domain.Dependency{
			Ecosystem:         ecosystem,
			Library:           name,
			File:              absPath,
			VersionConstraint: moduleVersion,
			Version:           moduleVersion,
			Resolved:          moduleVersion,
		})
	}

	return dependencies, skipped
}

// parseReplace handles one replace statement (with the "replace " prefix
// already removed). It returns either a dependency or a skip reason.
func parseReplace(statement, absPath string, lineNum int, original string) (domain.Dependency, string) {
	if match := fullReplacePattern.FindStringSubmatch(statement); match != nil {
		oldModule, oldVersion, newModule, newVersion := match[1], match[2], match[3], match[4]
		if !hasDigit.MatchString(newVersion) {
			return domain.Dependency{}, fmt.Sprintf("Line %d skipped (no digit in version) in %s: '%s'", lineNum, absPath, original)
		}
		return domain.Dependency{
			Ecosystem:         ecosystem,
			Library:           newModule,
			File:              absPath,
			VersionConstraint: newVersion,
			Version:           newVersion,
			Resolved:          newVersion,
			Replaces:          oldModule + " " + oldVersion,
		}, ""
	}

	if match := simpleReplacePattern.FindStringSubmatch(statement); match != nil {
		oldModule, newModule, newVersion := match[1], match[2], match[3]
		if !hasDigit.MatchString(newVersion) {
			return domain.Dependency{}, fmt.Sprintf("Line %d skipped (no digit in version) in %s: '%s'", lineNum, absPath, original)
		}
		return domain.Dependency{
			Ecosystem:         ecosystem,
			Library:           newModule,
			File:              absPath,
			VersionConstraint: newVersion,
			Version:           newVersion,
			Resolved:          newVersion,
			Replaces:          oldModule,
		}, ""
	}

	if minimalReplacePattern.MatchString(statement) {
		return domain.Dependency{}, fmt.Sprintf("Line %d skipped (no version in replace) in %s: '%s'", lineNum, absPath, original)
	}

	return domain.Dependency{}, fmt.Sprintf("Line %d invalid replace format in %s: '%s'", lineNum, absPath, original)
}
