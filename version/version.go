// Package version provides the comparable-version ordering used throughout
// the scanner. Parsing is deliberately tolerant: registry and advisory data
// carry qualifiers (v-prefixes, ".RELEASE" suffixes, build metadata) that a
// strict semver parser rejects, so anything with a leading dotted-numeric run
// is accepted and ordered by it.
package version

import (
	"fmt"
	"regexp"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

var numericRun = regexp.MustCompile(`\d+(?:\.\d+)*`)

// Parse converts a raw version string into a comparable version. It first
// tries the full string, then falls back to the first dotted-numeric run
// inside it. Strings without any numeric component fail.
func Parse(raw string) (*goversion.Version, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "v")
	if trimmed == "" {
		return nil, fmt.Errorf("empty version string")
	}

	if v, err := goversion.NewVersion(trimmed); err == nil {
		return v, nil
	}

	run := numericRun.FindString(trimmed)
	if run == "" {
		return nil, fmt.Errorf("no numeric component in version %q", raw)
	}

	return goversion.NewVersion(run)
}

// NumericRun returns the first dotted-numeric run in raw, or "" when none
// exists. Used by parsers that reduce loose constraints to a plain version.
func NumericRun(raw string) string {
	return numericRun.FindString(raw)
}

// Compare orders two raw version strings. It returns a negative value when
// a < b, zero when equal, positive when a > b, and an error when either side
// cannot be parsed.
func Compare(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %q: %w", a, err)
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %q: %w", b, err)
	}
	return va.Compare(vb), nil
}

// GreaterThan reports whether a is strictly newer than b. A parse failure on
// either side means the versions cannot be ordered and yields false.
func GreaterThan(a, b string) bool {
	cmp, err := Compare(a, b)
	if err != nil {
		return false
	}
	return cmp > 0
}

// Minimal returns the smallest comparable candidate, or "" when the list is
// empty. Candidates that fail to parse are excluded, not treated as errors.
func Minimal(candidates []string) string {
	minimal := ""
	var minimalParsed *goversion.Version

	for _, candidate := range candidates {
		parsed, err := Parse(candidate)
		if err != nil {
			continue
		}
		if minimalParsed == nil || parsed.LessThan(minimalParsed) {
			minimal = candidate
			minimalParsed = parsed
		}
	}

	return minimal
}
