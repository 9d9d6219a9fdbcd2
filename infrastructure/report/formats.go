package report

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/depscout/depscout/domain"
)

type renderFunc func(w io.Writer, repository string, results []domain.ScanResult) error

var renderers = map[string]renderFunc{
	"json": renderJSON,
	"csv":  renderCSV,
	"txt":  renderTXT,
	"xml":  renderXML,
	"html": renderHTML,
}

func renderJSON(w io.Writer, _ string, results []domain.ScanResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if results == nil {
		results = []domain.ScanResult{}
	}
	return encoder.Encode(results)
}

func renderCSV(w io.Writer, _ string, results []domain.ScanResult) error {
	writer := csv.NewWriter(w)
	header := []string{
		"library", "version_in_use", "ecosystem", "file_location",
		"osv_id", "cve_ids", "severity", "fixed_in", "recommendation",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, result := range results {
		for _, finding := range result.Findings {
			row := []string{
				result.Library,
				result.VersionInUse,
				result.Ecosystem,
				result.FileLocation,
				finding.OSVID,
				strings.Join(finding.CVEIDs, " "),
				finding.Severity,
				finding.FixedIn,
				result.Recommendation.Recommendation,
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func renderTXT(w io.Writer, repository string, results []domain.ScanResult) error {
	if _, err := fmt.Fprintf(w, "Vulnerability report for %s\n", repository); err != nil {
		return err
	}
	fmt.Fprintf(w, "Vulnerable dependencies: %d\n\n", len(results))

	for _, result := range results {
		fmt.Fprintf(w, "%s %s (%s)\n", result.Library, result.VersionInUse, result.Ecosystem)
		fmt.Fprintf(w, "  Declared in: %s\n", result.FileLocation)
		fmt.Fprintf(w, "  Recommendation: %s\n", result.Recommendation.Recommendation)
		for _, finding := range result.Findings {
			fmt.Fprintf(w, "  - %s [%s]", finding.OSVID, finding.Severity)
			if len(finding.CVEIDs) > 0 {
				fmt.Fprintf(w, " (%s)", strings.Join(finding.CVEIDs, ", "))
			}
			if finding.FixedIn != "" {
				fmt.Fprintf(w, " fixed in %s", finding.FixedIn)
			}
			fmt.Fprintln(w)
			if finding.Summary != "" {
				fmt.Fprintf(w, "    %s\n", finding.Summary)
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

type xmlReport struct {
	XMLName    xml.Name    `xml:"vulnerability_report"`
	Repository string      `xml:"repository,attr"`
	Results    []xmlResult `xml:"result"`
}

type xmlResult struct {
	Library        string       `xml:"library"`
	VersionInUse   string       `xml:"version_in_use"`
	Ecosystem      string       `xml:"ecosystem"`
	FileLocation   string       `xml:"file_location"`
	Recommendation string       `xml:"recommendation"`
	Findings       []xmlFinding `xml:"vulnerability"`
}

type xmlFinding struct {
	OSVID    string   `xml:"osv_id"`
	CVEIDs   []string `xml:"cve_id,omitempty"`
	Severity string   `xml:"severity"`
	Summary  string   `xml:"summary,omitempty"`
	FixedIn  string   `xml:"fixed_in,omitempty"`
}

func renderXML(w io.Writer, repository string, results []domain.ScanResult) error {
	doc := xmlReport{Repository: repository}
	for _, result := range results {
		entry := xmlResult{
			Library:        result.Library,
			VersionInUse:   result.VersionInUse,
			Ecosystem:      result.Ecosystem,
			FileLocation:   result.FileLocation,
			Recommendation: result.Recommendation.Recommendation,
		}
		for _, finding := range result.Findings {
			entry.Findings = append(entry.Findings, xmlFinding{
				OSVID:    finding.OSVID,
				CVEIDs:   finding.CVEIDs,
				Severity: finding.Severity,
				Summary:  finding.Summary,
				FixedIn:  finding.FixedIn,
			})
		}
		doc.Results = append(doc.Results, entry)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	return encoder.Encode(doc)
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Vulnerability report for {{.Repository}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; vertical-align: top; }
th { background: #f0f0f0; }
.rec { font-weight: bold; }
</style>
</head>
<body>
<h1>Vulnerability report for {{.Repository}}</h1>
<p>Vulnerable dependencies: {{len .Results}}</p>
<table>
<tr><th>Library</th><th>Version</th><th>Ecosystem</th><th>File</th><th>Advisories</th><th>Recommendation</th></tr>
{{range .Results}}
<tr>
<td>{{.Library}}</td>
<td>{{.VersionInUse}}</td>
<td>{{.Ecosystem}}</td>
<td>{{.FileLocation}}</td>
<td>
<ul>
{{range .Findings}}<li>{{.OSVID}} [{{.Severity}}]{{if .FixedIn}} fixed in {{.FixedIn}}{{end}}</li>
{{end}}</ul>
</td>
<td class="rec">{{.Recommendation.Recommendation}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`))

func renderHTML(w io.Writer, repository string, results []domain.ScanResult) error {
	return htmlTemplate.Execute(w, struct {
		Repository string
		Results    []domain.ScanResult
	}{Repository: repository, Results: results})
}
