package domain

import "strings"

// Dependency represents a single declared dependency resolved from a manifest
// file. Version always holds a comparable form; entries whose version cannot
// be resolved never become a Dependency — parsers report them as skips.
type Dependency struct {
	Ecosystem         string // Parser ecosystem tag ("go", "maven", "npm", "pypi")
	Library           string // Dependency name; "group:artifact" for Maven
	File              string // Absolute path of the manifest it was declared in
	VersionConstraint string // Version as declared (may carry operators/ranges)
	Version           string // Resolved comparable version
	Resolved          string // Same as Version; kept for report consumers
	Replaces          string // Go only: module superseded by a replace directive
}

// Query identifies one vulnerability lookup against the database.
type Query struct {
	Name      string
	Version   string
	Ecosystem string // Canonical database spelling ("Go", "Maven", "PyPI", "npm")
}

// Vulnerability is a full database record for one advisory.
// FetchError is set instead of the payload when the detail fetch failed.
type Vulnerability struct {
	ID         string
	Aliases    []string
	Severity   string
	Summary    string
	Details    string
	Affected   []AffectedPackage
	Published  string
	Modified   string
	FetchError string
}

// AffectedPackage names one package the advisory applies to.
type AffectedPackage struct {
	Name      string
	Ecosystem string
	Ranges    []VersionRange
}

// VersionRange holds the introduced/fixed events of one affected range.
type VersionRange struct {
	Events []RangeEvent
}

// RangeEvent is a single range event; only Fixed matters for upgrade advice.
type RangeEvent struct {
	Introduced string
	Fixed      string
}

// CVEIDs returns the CVE identifiers among the advisory's aliases.
func (v Vulnerability) CVEIDs() []string {
	var ids []string
	for _, alias := range v.Aliases {
		if strings.Contains(alias, "CVE") {
			ids = append(ids, alias)
		}
	}
	return ids
}

// FirstFixedVersion returns the first "fixed" event found in any affected
// range, or "" when the advisory cites none.
func (v Vulnerability) FirstFixedVersion() string {
	for _, affected := range v.Affected {
		for _, r := range affected.Ranges {
			for _, event := range r.Events {
				if event.Fixed != "" {
					return event.Fixed
				}
			}
		}
	}
	return ""
}

// UpgradeRecommendation is the computed upgrade advice for one dependency.
type UpgradeRecommendation struct {
	MinimalSaferVersion string   `json:"minimal_safer_version,omitempty"`
	LatestVersion       string   `json:"latest_version,omitempty"`
	LatestIsVulnerable  bool     `json:"latest_is_vulnerable"`
	LatestVersionVulns  []string `json:"latest_version_vulns,omitempty"`
	Recommendation      string   `json:"recommendation"`
}

// Finding is the per-advisory slice of a ScanResult, trimmed to the fields
// the reports render.
type Finding struct {
	OSVID     string   `json:"osv_id"`
	CVEIDs    []string `json:"cve_ids,omitempty"`
	Severity  string   `json:"severity"`
	Summary   string   `json:"summary,omitempty"`
	Details   string   `json:"details,omitempty"`
	FixedIn   string   `json:"fixed_in,omitempty"`
	Published string   `json:"published,omitempty"`
	Modified  string   `json:"modified,omitempty"`
}

// ScanResult is one entry of the produced artifact: a vulnerable dependency
// with its upgrade recommendation and the advisories that survived filtering.
type ScanResult struct {
	Library        string                `json:"library"`
	VersionInUse   string                `json:"version_in_use"`
	FileLocation   string                `json:"file_location"`
	Ecosystem      string                `json:"ecosystem"`
	Recommendation UpgradeRecommendation `json:"upgrade_recommendation"`
	Findings       []Finding             `json:"vulnerabilities"`
}

// ScanSummary carries the per-run counters reported alongside results.
type ScanSummary struct {
	Dependencies   int      `json:"dependencies"`
	Skipped        int      `json:"skipped"`
	SkipReasons    []string `json:"skip_reasons,omitempty"`
	FalsePositives int      `json:"false_positives"`
	Vulnerable     int      `json:"vulnerable"`
}
