package report

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"a11y-checker/internal/models"
)

// JSONReporter writes the report as indented JSON. Timestamps serialize as
// RFC 3339.
type JSONReporter struct {
	dir string
}

func NewJSONReporter(dir string) *JSONReporter {
	return &JSONReporter{dir: dir}
}

func (r *JSONReporter) Format() string { return models.FormatJSON }

// Path returns where the report of a run started at report.Summary.Timestamp
// is written.
func (r *JSONReporter) Path(report *models.HealthCheckReport) string {
	return filepath.Join(r.dir, FileName(report.Summary.Timestamp, "json"))
}

func (r *JSONReporter) Generate(ctx context.Context, report *models.HealthCheckReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return writeReport(r.Path(report), append(data, '\n'))
}
