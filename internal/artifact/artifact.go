// Package artifact defines where audit artifacts live, what they are called and which
// schema version they carry. Orchestrators write through it and aggregators read
// through it, so both sides agree on the contract.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// AccessibilitySchema marks per-page accessibility HTML artifacts.
	AccessibilitySchema = "axe-html/v1"
	// LighthouseSchema names the Lighthouse JSON shape the parsers understand.
	LighthouseSchema = "lighthouse-json/v1"
	// SchemaMetaName is the <meta name> carrying the schema marker in HTML artifacts.
	SchemaMetaName = "scalpel-e2e-schema"

	// ConsolidatedHTML is the aggregate dashboard written into each report directory.
	ConsolidatedHTML = "consolidated-report.html"
	// ConsolidatedMarkdown is the CI summary written alongside it.
	ConsolidatedMarkdown = "consolidated-report.md"
)

// AccessibilityFile returns the per-page accessibility artifact name.
func AccessibilityFile(pageID string) string {
	return fmt.Sprintf("accessibility-report-%s.html", pageID)
}

// LighthouseHTMLFile returns the per-page Lighthouse HTML artifact name.
func LighthouseHTMLFile(label string) string {
	return fmt.Sprintf("lighthouse-report-%s.html", label)
}

// LighthouseJSONFile returns the per-page Lighthouse JSON artifact name.
func LighthouseJSONFile(label string) string {
	return fmt.Sprintf("lighthouse-report-%s.json", label)
}

// WriteFile replaces path with data atomically, creating parent directories as needed.
// Readers never observe a partially written artifact.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to move artifact into place at %s: %w", path, err)
	}
	return nil
}
