package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/depscout/depscout/domain"
)

const summaryCellLimit = 60

// PrintSummary renders the console summary: a table of vulnerable
// dependencies plus the skip and false-positive counters.
func PrintSummary(repository string, results []domain.ScanResult, summary domain.ScanSummary) {
	fmt.Printf("\nScan summary for %s: %d dependencies checked\n",
		repository, summary.Dependencies)

	if summary.Skipped > 0 {
		fmt.Println(color.YellowString("%d manifest entries skipped (run with --verbose for reasons)", summary.Skipped))
	}
	if summary.FalsePositives > 0 {
		fmt.Println(color.YellowString("%d packages dropped as false positives", summary.FalsePositives))
	}

	if len(results) == 0 {
		fmt.Println(color.GreenString("No vulnerable dependencies found."))
		return
	}

	fmt.Println(color.RedString("%d vulnerable dependencies found:", len(results)))

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.On}},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting:   tw.CellFormatting{AutoWrap: tw.WrapNormal},
				Alignment:    tw.CellAlignment{Global: tw.AlignLeft},
				ColMaxWidths: tw.CellWidth{Global: summaryCellLimit},
			},
		}),
	)

	table.Header([]string{"Library", "Version", "Ecosystem", "Advisories", "Severity", "Recommendation"})
	for _, result := range results {
		table.Append([]string{
			result.Library,
			result.VersionInUse,
			result.Ecosystem,
			advisoryList(result.Findings),
			highestSeverity(result.Findings),
			result.Recommendation.Recommendation,
		})
	}
	table.Render()
}

func advisoryList(findings []domain.Finding) string {
	ids := make([]string, 0, len(findings))
	for _, finding := range findings {
		ids = append(ids, finding.OSVID)
	}
	return strings.Join(ids, "\n")
}

// severityRank orders the labels the database emits; scored entries outrank
// nothing but named levels.
var severityRank = map[string]int{
	"CRITICAL": 5,
	"HIGH":     4,
	"MODERATE": 3,
	"MEDIUM":   3,
	"LOW":      2,
	"UNKNOWN":  1,
}

func highestSeverity(findings []domain.Finding) string {
	highest := "UNKNOWN"
	for _, finding := range findings {
		label := strings.ToUpper(finding.Severity)
		if severityRank[label] > severityRank[highest] {
			highest = label
		} else if severityRank[label] == 0 && highest == "UNKNOWN" && finding.Severity != "" {
			highest = finding.Severity
		}
	}
	return highest
}
