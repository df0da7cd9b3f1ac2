// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Reporter streams consolidated accessibility pages into a machine-readable format.
type Reporter interface {
	// Write processes a single page entry.
	Write(page AccessibilityPage) error
	// Close finalizes the report and closes any underlying resources.
	Close() error
}

type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a reporter for format writing to outputPath, or stdout when the path is empty or "stdout".
func New(format, outputPath, toolVersion string) (Reporter, error) {
	if format != "sarif" {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var writer io.WriteCloser
	if outputPath == "" || outputPath == "stdout" {
		writer = &nopWriteCloser{os.Stdout}
	} else {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory for %s: %w", outputPath, err)
		}
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}
	return NewSARIFReporter(writer, toolVersion), nil
}

// WriteAll feeds every page of report into r and closes it.
func WriteAll(r Reporter, report *AccessibilityReport) error {
	for _, p := range report.Pages {
		if err := r.Write(p); err != nil {
			r.Close()
			return err
		}
	}
	return r.Close()
}
