// Package report renders a finished health-check run for people and tools.
//
// Reporters only read the report they are given. File reporters write one
// timestamped file per run into the configured output directory.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"a11y-checker/internal/models"
)

// Reporter turns an aggregate report into one output format.
type Reporter interface {
	Format() string
	Generate(ctx context.Context, report *models.HealthCheckReport) error
}

// New builds the reporter for format. Console output goes to stdout.
func New(format string, cfg models.OutputConfig, stdout io.Writer) (Reporter, error) {
	switch format {
	case models.FormatConsole:
		return NewConsoleReporter(stdout, cfg.Verbose), nil
	case models.FormatJSON:
		return NewJSONReporter(cfg.Directory), nil
	case models.FormatHTML:
		return NewHTMLReporter(cfg.Directory), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// FromConfig builds one reporter per configured format, in order.
func FromConfig(cfg models.OutputConfig, stdout io.Writer) ([]Reporter, error) {
	reporters := make([]Reporter, 0, len(cfg.Formats))
	for _, f := range cfg.Formats {
		r, err := New(f, cfg, stdout)
		if err != nil {
			return nil, err
		}
		reporters = append(reporters, r)
	}
	return reporters, nil
}

// FileName returns the report file name for a run started at ts.
func FileName(ts time.Time, ext string) string {
	return fmt.Sprintf("accessibility-report-%s.%s", ts.Format("20060102-150405"), ext)
}

// lockFileName serializes report writers sharing an output directory. The
// file is left in place: removing it would let a waiting writer lock an
// unlinked inode while a new one locks a fresh file.
const lockFileName = ".a11y-report.lock"

// writeReport writes data to path while holding the directory's lock file,
// through a temp file and rename so readers never see a partial report.
func writeReport(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	lockPath := filepath.Join(dir, lockFileName)
	lock := flock.New(lockPath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", lockPath, err)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to release lock on %s: %w", lockPath, unlockErr))
		}
	}()

	tmp, err := os.CreateTemp(dir, ".tmp-report-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}
