package gradle

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/depscout/depscout/domain"
)

const (
	parserName = "gradle"
	// Gradle coordinates resolve against Maven repositories, so records
	// carry the maven ecosystem tag.
	ecosystem = "maven"
)

// dependencyPattern matches declarations like:
//
//	implementation 'com.google.guava:guava:31.0-jre'
var dependencyPattern = regexp.MustCompile(
	`^\s*(implementation|api|compile|testImplementation|runtimeOnly|annotationProcessor)\s+['"]([^'"]+):([^'"]+):([^'"]+)['"]`)

// Parser reads Gradle build scripts line by line. Dependencies whose version
// needs build evaluation (property references, method calls) are skipped —
// this scanner never evaluates Gradle scripts.
type Parser struct{}

// New creates the Gradle build-script parser.
func New() domain.Parser { return &Parser{} }

func (p *Parser) Name() string { return parserName }

func (p *Parser) Patterns() []string { return []string{"build.gradle", "build.gradle.kts"} }

// Parse extracts quoted group:artifact:version declarations.
func (p *Parser) Parse(path string) ([]domain.Dependency, []string) {
	base := filepath.Base(path)
	if base != "build.gradle" && base != "build.gradle.kts" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []string{fmt.Sprintf("Failed to read %s: %v", path, err)}
	}

	absPath, absErr := filepath.Abs(path)
	if absErr != nil {
		absPath = path
	}

	var dependencies []domain.Dependency
	var skipped []string

	for lineNum, line := range strings.Split(string(data), "\n") {
		match := dependencyPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		groupID := strings.TrimSpace(match[2])
		artifactID := strings.TrimSpace(match[3])
		gradleVersion := strings.TrimSpace(match[4])

		if gradleVersion == "" || strings.ContainsAny(gradleVersion, "${}()") {
			skipped = append(skipped, fmt.Sprintf(
				"Unresolved version '%s' for %s:%s at line %d in %s",
				gradleVersion, groupID, artifactID, lineNum+1, absPath))
			continue
		}

		dependencies = append(dependencies, domain.Dependency{
			Ecosystem:         ecosystem,
			Library:           groupID + ":" + artifactID,
			File:              absPath,
			VersionConstraint: gradleVersion,
			Version:           gradleVersion,
			Resolved:          gradleVersion,
		})
	}

	return dependencies, skipped
}
