package maven

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/depscout/depscout/domain"
)

const (
	parserName   = "maven"
	manifestName = "pom.xml"
	ecosystem    = "maven"

	defaultParentRelativePath = "../pom.xml"
)

var (
	rangeLowerBound = regexp.MustCompile(`^[\[(]\s*([^\],)]+)`)
	qualifierNote   = regexp.MustCompile(`[(\[].*?[)\]]`)
)

// Parser reads pom.xml files and resolves each declared dependency to a
// single version, walking the Maven precedence chain: explicit version with
// property interpolation, dependencyManagement (current POM overriding the
// parent), a heuristic over *.version properties, and finally a bounded
// table of well-known defaults.
type Parser struct{}

// New creates the Maven POM parser.
func New() domain.Parser { return &Parser{} }

func (p *Parser) Name() string { return parserName }

func (p *Parser) Patterns() []string { return []string{manifestName} }

// Parse extracts dependencies from a pom.xml file.
func (p *Parser) Parse(path string) ([]domain.Dependency, []string) {
	if filepath.Base(path) != manifestName {
		return nil, nil
	}

	pom, err := loadPOM(path)
	if err != nil {
		return nil, []string{fmt.Sprintf("XML parse error: %s", path)}
	}

	absPath, absErr := filepath.Abs(path)
	if absErr != nil {
		absPath = path
	}

	// The parent POM contributes properties and managed versions; it is
	// located via <parent><relativePath>, defaulting to ../pom.xml.
	var parent *pomFile
	if pom.Parent != nil {
		parentPath := resolveParentPath(path, pom)
		if loaded, loadErr := loadPOM(parentPath); loadErr == nil {
			parent = loaded
		}
	}

	properties := map[string]string{}
	managed := map[string]string{}
	if parent != nil {
		mergeProperties(properties, parent)
		mergeManaged(managed, parent)
	}
	mergeProperties(properties, pom) // current POM overrides the parent
	mergeManaged(managed, pom)

	var dependencies []domain.Dependency
	var skipped []string

	for _, dep := range pom.Dependencies {
		groupID := strings.TrimSpace(dep.GroupID)
		if groupID == "" && pom.Parent != nil {
			groupID = strings.TrimSpace(pom.Parent.GroupID)
		}
		artifactID := strings.TrimSpace(dep.ArtifactID)

		if groupID == "" || artifactID == "" {
			skipped = append(skipped, fmt.Sprintf("Dependency missing groupId or artifactId in %s", absPath))
			continue
		}

		key := groupID + ":" + artifactID
		rawVersion := strings.TrimSpace(dep.Version)
		resolved := resolveVersion(key, groupID, artifactID, rawVersion, properties, managed)

		if resolved == "" {
			skipped = append(skipped, fmt.Sprintf("%s with missing version in %s", key, absPath))
			continue
		}

		resolved = normalizeRange(resolved)

		if resolved == "" || strings.HasPrefix(resolved, "${") {
			skipped = append(skipped, fmt.Sprintf("%s with unresolved version '%s' in %s", key, rawVersion, absPath))
			continue
		}

		dependencies = append(dependencies, domain.Dependency{
			Ecosystem:         ecosystem,
			Library:           key,
			File:              absPath,
			VersionConstraint: rawVersion,
			Version:           resolved,
			Resolved:          resolved,
		})
	}

	return dependencies, skipped
}

// resolveVersion applies the version precedence chain for one dependency key.
func resolveVersion(key, groupID, artifactID, rawVersion string, properties, managed map[string]string) string {
	resolved := rawVersion

	// Step 1: interpolate a ${prop} placeholder against the merged table.
	if strings.HasPrefix(rawVersion, "${") && strings.HasSuffix(rawVersion, "}") {
		propKey := rawVersion[2 : len(rawVersion)-1]
		if value, ok := properties[propKey]; ok {
			resolved = value
		}
	}

	// Steps 2+3: fall back to managed versions (current POM overriding parent).
	if resolved == "" {
		resolved = managed[key]
	}

	// Step 4: heuristic — a *.version property whose key mentions the
	// artifact or group id. Best effort only; keys are visited in sorted
	// order so the pick is at least deterministic.
	if resolved == "" {
		resolved = versionPropertyFor(groupID, artifactID, properties)
	}

	// Step 5: last resort, the static table of well-known defaults.
	if resolved == "" {
		resolved = wellKnownVersions[key]
	}

	return resolved
}

// versionPropertyFor scans properties for a key like "<something>.version"
// that mentions the artifact or group id and returns its value.
func versionPropertyFor(groupID, artifactID string, properties map[string]string) string {
	keys := make([]string, 0, len(properties))
	for key := range properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lowerArtifact := strings.ToLower(artifactID)
	lowerGroup := strings.ToLower(groupID)

	for _, key := range keys {
		lowerKey := strings.ToLower(key)
		if !strings.HasSuffix(lowerKey, ".version") || properties[key] == "" {
			continue
		}
		if strings.Contains(lowerKey, lowerArtifact) || strings.Contains(lowerKey, lowerGroup) {
			return properties[key]
		}
	}
	return ""
}

// normalizeRange reduces a bracketed range to its lower bound and strips
// trailing parenthetical qualifier notes, e.g. "[4.21.0,5.0.0)" -> "4.21.0".
func normalizeRange(resolved string) string {
	if match := rangeLowerBound.FindStringSubmatch(resolved); match != nil {
		resolved = strings.TrimSpace(match[1])
	}
	return strings.TrimSpace(qualifierNote.ReplaceAllString(resolved, ""))
}

// --- POM model ---

type pomFile struct {
	XMLName              xml.Name         `xml:"project"`
	GroupID              string           `xml:"groupId"`
	ArtifactID           string           `xml:"artifactId"`
	Version              string           `xml:"version"`
	Parent               *pomParent       `xml:"parent"`
	Properties           pomProperties    `xml:"properties"`
	DependencyManagement *pomDepMgmt      `xml:"dependencyManagement"`
	Dependencies         []pomDependency  `xml:"dependencies>dependency"`
}

type pomParent struct {
	GroupID      string `xml:"groupId"`
	ArtifactID   string `xml:"artifactId"`
	Version      string `xml:"version"`
	RelativePath string `xml:"relativePath"`
}

type pomDepMgmt struct {
	Dependencies []pomDependency `xml:"dependencies>dependency"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
	Type       string `xml:"type"`
}

// pomProperties flattens the free-form <properties> element into a map.
type pomProperties struct {
	entries map[string]string
}

func (p *pomProperties) UnmarshalXML(decoder *xml.Decoder, start xml.StartElement) error {
	p.entries = map[string]string{}
	for {
		token, err := decoder.Token()
		if err != nil {
			return err
		}
		switch t := token.(type) {
		case xml.StartElement:
			var value string
			if decodeErr := decoder.DecodeElement(&value, &t); decodeErr != nil {
				return decodeErr
			}
			p.entries[t.Name.Local] = strings.TrimSpace(value)
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

func loadPOM(path string) (*pomFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pom pomFile
	if unmarshalErr := xml.Unmarshal(data, &pom); unmarshalErr != nil {
		return nil, unmarshalErr
	}
	return &pom, nil
}

// resolveParentPath locates the parent POM relative to the current file.
func resolveParentPath(currentPath string, pom *pomFile) string {
	relative := defaultParentRelativePath
	if pom.Parent != nil && strings.TrimSpace(pom.Parent.RelativePath) != "" {
		relative = strings.TrimSpace(pom.Parent.RelativePath)
	}
	resolved, err := filepath.Abs(filepath.Join(filepath.Dir(currentPath), relative))
	if err != nil {
		return filepath.Join(filepath.Dir(currentPath), relative)
	}
	return resolved
}

// mergeProperties copies pom's properties into the table, seeding
// project.version from the POM's own version or, failing that, its parent's.
func mergeProperties(table map[string]string, pom *pomFile) {
	for key, value := range pom.Properties.entries {
		table[key] = value
	}

	if v := strings.TrimSpace(pom.Version); v != "" {
		table["project.version"] = v
	} else if pom.Parent != nil {
		if parentVersion := strings.TrimSpace(pom.Parent.Version); parentVersion != "" {
			table["project.version"] = parentVersion
		}
	}
}

// mergeManaged copies pom's dependencyManagement versions into the table.
func mergeManaged(table map[string]string, pom *pomFile) {
	if pom.DependencyManagement == nil {
		return
	}
	for _, dep := range pom.DependencyManagement.Dependencies {
		groupID := strings.TrimSpace(dep.GroupID)
		artifactID := strings.TrimSpace(dep.ArtifactID)
		mavenVersion := strings.TrimSpace(dep.Version)
		if groupID == "" || artifactID == "" || mavenVersion == "" {
			continue
		}
		table[groupID+":"+artifactID] = mavenVersion
	}
}
