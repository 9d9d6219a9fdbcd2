// Package report renders ordered scan results to files (JSON, CSV, TXT, XML,
// HTML) and to a console summary table.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/depscout/depscout/domain"
)

// Formats lists every supported file format.
var Formats = []string{"json", "csv", "txt", "xml", "html"}

// Writer renders scan results into timestamped report files under one
// output directory.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates a writer targeting dir, creating it on first write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Write renders the results in the given format and returns the path of the
// written file.
func (w *Writer) Write(repository, format string, results []domain.ScanResult) (string, error) {
	render, found := renderers[strings.ToLower(format)]
	if !found {
		return "", fmt.Errorf("unsupported report format %q, supported: %s", format, strings.Join(Formats, ", "))
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", w.dir, err)
	}

	name := fmt.Sprintf("vulnerability_report_%s_%s.%s", repository, w.now().Format("20060102_150405"), format)
	path := filepath.Join(w.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file %s: %w", path, err)
	}
	defer file.Close()

	if err = render(file, repository, results); err != nil {
		return "", fmt.Errorf("failed to render %s report: %w", format, err)
	}

	logger.Infof("Wrote %s report to %s", format, path)
	return path, nil
}

// WriteAll renders the results in every requested format.
func (w *Writer) WriteAll(repository string, formats []string, results []domain.ScanResult) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path, err := w.Write(repository, format, results)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
