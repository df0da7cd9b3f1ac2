// internal/reporting/sarif_reporter.go
package reporting

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-e2e/internal/audit"
	"github.com/xkilldash9x/scalpel-e2e/internal/observability"
	"github.com/xkilldash9x/scalpel-e2e/internal/reporting/sarif"
)

// Tool identification in SARIF output.
const (
	ToolName     = "scalpel-e2e"
	ToolInfoURI  = "https://github.com/xkilldash9x/scalpel-e2e"
	SARIFVersion = "2.1.0"
	SARIFSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	axeHelpURI   = "https://dequeuniversity.com/rules/axe/"
)

// SARIFReporter converts consolidated accessibility pages into a SARIF 2.1.0 log, one rule
// per axe rule id and one result per violating row. It is safe for concurrent use.
type SARIFReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	log    *sarif.Log
	mu     sync.Mutex
	rules  map[string]bool
}

// NewSARIFReporter takes ownership of writer and closes it in Close.
func NewSARIFReporter(writer io.WriteCloser, toolVersion string) *SARIFReporter {
	log := &sarif.Log{
		Version: SARIFVersion,
		Schema:  SARIFSchema,
		Runs: []*sarif.Run{{
			Tool: &sarif.Tool{
				Driver: &sarif.ToolComponent{
					Name:           ToolName,
					Version:        pString(toolVersion),
					InformationURI: pString(ToolInfoURI),
					Rules:          []*sarif.ReportingDescriptor{},
				},
			},
			Results: []*sarif.Result{},
		}},
	}
	return &SARIFReporter{
		writer: writer,
		logger: observability.GetLogger().Named("sarif_reporter"),
		log:    log,
		rules:  make(map[string]bool),
	}
}

// Write adds one page's violations. Placeholder pages contribute nothing.
func (r *SARIFReporter) Write(page AccessibilityPage) error {
	if !page.Found() {
		r.logger.Debug("Skipping page without artifact.", zap.String("page", page.ID))
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.log.Runs[0]
	for _, v := range page.Summary.Violations {
		ruleID := r.ensureRule(v)
		run.Results = append(run.Results, &sarif.Result{
			RuleID:  ruleID,
			Message: &sarif.Message{Text: pString(fmt.Sprintf("%s (%d occurrences)", v.Description, v.Count))},
			Level:   levelFor(v.Impact),
			Locations: []*sarif.Location{{
				PhysicalLocation: &sarif.PhysicalLocation{
					ArtifactLocation: &sarif.ArtifactLocation{URI: pString(page.Summary.URL)},
				},
				Message: &sarif.Message{Text: pString(page.Title)},
			}},
			PartialFingerprints: map[string]string{"pageRule/v1": fingerprint(page.ID, ruleID)},
		})
	}
	return nil
}

// Close encodes the log and closes the underlying writer.
func (r *SARIFReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Info("Finalizing SARIF report",
		zap.Int("total_results", len(r.log.Runs[0].Results)),
		zap.Int("total_rules", len(r.log.Runs[0].Tool.Driver.Rules)))

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	encodeErr := encoder.Encode(r.log)
	closeErr := r.writer.Close()

	if encodeErr != nil {
		return fmt.Errorf("failed to encode SARIF output: %w", encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	return nil
}

// ensureRule registers the axe rule on first sight. Must be called with mu held.
func (r *SARIFReporter) ensureRule(v audit.Violation) string {
	id := "axe/" + v.RuleID
	if r.rules[id] {
		return id
	}
	r.rules[id] = true

	driver := r.log.Runs[0].Tool.Driver
	driver.Rules = append(driver.Rules, &sarif.ReportingDescriptor{
		ID:               id,
		Name:             pString(v.RuleID),
		ShortDescription: &sarif.MultiformatMessageString{Text: pString(v.Description)},
		HelpURI:          pString(axeHelpURI + v.RuleID),
		Properties: &sarif.PropertyBag{
			"tags":   []string{"accessibility", "axe-core"},
			"impact": string(v.Impact),
		},
	})
	return id
}

// fingerprint keeps results stable across runs so code scanning can track them.
func fingerprint(pageID, ruleID string) string {
	h := sha1.Sum([]byte(pageID + "\x00" + ruleID))
	return hex.EncodeToString(h[:])
}

func levelFor(impact audit.Impact) sarif.Level {
	switch impact {
	case audit.ImpactCritical, audit.ImpactSerious:
		return sarif.LevelError
	case audit.ImpactModerate:
		return sarif.LevelWarning
	default:
		return sarif.LevelNote
	}
}

func pString(s string) *string {
	return &s
}
