package osv

import (
	"fmt"

	"github.com/depscout/depscout/domain"
)

type queryRequest struct {
	Package queryPackage `json:"package"`
	Version string       `json:"version"`
}

type queryPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

func newQueryRequest(q domain.Query) queryRequest {
	return queryRequest{
		Package: queryPackage{Name: q.Name, Ecosystem: q.Ecosystem},
		Version: q.Version,
	}
}

type batchRequest struct {
	Queries []queryRequest `json:"queries"`
}

type batchResponse struct {
	Results []batchResult `json:"results"`
}

type batchResult struct {
	Vulns []vulnReference `json:"vulns"`
}

type queryResponse struct {
	Vulns []vulnReference `json:"vulns"`
}

type vulnReference struct {
	ID string `json:"id"`
}

type vulnRecord struct {
	ID               string           `json:"id"`
	Aliases          []string         `json:"aliases"`
	Summary          string           `json:"summary"`
	Details          string           `json:"details"`
	Published        string           `json:"published"`
	Modified         string           `json:"modified"`
	Affected         []affectedEntry  `json:"affected"`
	Severity         []severityEntry  `json:"severity"`
	DatabaseSpecific databaseSpecific `json:"database_specific"`
}

type databaseSpecific struct {
	Severity string `json:"severity"`
}

type severityEntry struct {
	Type  string `json:"type"`
	Score string `json:"score"`
}

type affectedEntry struct {
	Package struct {
		Name      string `json:"name"`
		Ecosystem string `json:"ecosystem"`
	} `json:"package"`
	Ranges []struct {
		Type   string `json:"type"`
		Events []struct {
			Introduced string `json:"introduced"`
			Fixed      string `json:"fixed"`
		} `json:"events"`
	} `json:"ranges"`
}

func (r vulnRecord) toDomain() domain.Vulnerability {
	vuln := domain.Vulnerability{
		ID:        r.ID,
		Aliases:   r.Aliases,
		Severity:  r.severity(),
		Summary:   r.Summary,
		Details:   r.Details,
		Published: r.Published,
		Modified:  r.Modified,
	}

	for _, affected := range r.Affected {
		pkg := domain.AffectedPackage{
			Name:      affected.Package.Name,
			Ecosystem: affected.Package.Ecosystem,
		}
		for _, rg := range affected.Ranges {
			versionRange := domain.VersionRange{}
			for _, event := range rg.Events {
				versionRange.Events = append(versionRange.Events, domain.RangeEvent{
					Introduced: event.Introduced,
					Fixed:      event.Fixed,
				})
			}
			pkg.Ranges = append(pkg.Ranges, versionRange)
		}
		vuln.Affected = append(vuln.Affected, pkg)
	}
	return vuln
}

// severity prefers the database-specific label, then the first scored entry.
func (r vulnRecord) severity() string {
	if r.DatabaseSpecific.Severity != "" {
		return r.DatabaseSpecific.Severity
	}
	for _, entry := range r.Severity {
		if entry.Score != "" {
			return fmt.Sprintf("%s: %s", entry.Type, entry.Score)
		}
	}
	return "UNKNOWN"
}
