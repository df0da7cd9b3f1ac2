// internal/reporting/junit.go
package reporting

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/scalpel-e2e/internal/audit"
)

// JUnitCase is one check rendered as a <testcase>.
type JUnitCase struct {
	Name      string
	ClassName string
	// Failure is the failure message; empty means the case passed.
	Failure string
}

// JUnitSuite groups the checks of one audited page.
type JUnitSuite struct {
	Name  string
	Cases []JUnitCase
}

// Failures counts the failed cases.
func (s JUnitSuite) Failures() int {
	n := 0
	for _, c := range s.Cases {
		if c.Failure != "" {
			n++
		}
	}
	return n
}

// ThresholdSuite converts a page's Lighthouse threshold checks into a suite.
func ThresholdSuite(label string, results []audit.ThresholdResult) JUnitSuite {
	suite := JUnitSuite{Name: "lighthouse." + label}
	for _, r := range results {
		c := JUnitCase{Name: string(r.Category), ClassName: suite.Name}
		if !r.Passed {
			c.Failure = r.String()
		}
		suite.Cases = append(suite.Cases, c)
	}
	return suite
}

// BudgetSuite converts a page's accessibility budget checks into a suite.
func BudgetSuite(pageID string, results []audit.BudgetResult) JUnitSuite {
	suite := JUnitSuite{Name: "accessibility." + pageID}
	for _, r := range results {
		c := JUnitCase{Name: r.Name, ClassName: suite.Name}
		if !r.Passed {
			c.Failure = r.String()
		}
		suite.Cases = append(suite.Cases, c)
	}
	return suite
}

// JUnitWriter renders audit checks as JUnit XML for CI test report ingestion.
type JUnitWriter struct {
	now func() time.Time
}

// NewJUnitWriter returns a writer stamping suites with the current time.
func NewJUnitWriter() *JUnitWriter {
	return &JUnitWriter{now: time.Now}
}

// Write emits one <testsuites> document containing every suite.
func (jw *JUnitWriter) Write(w io.Writer, suites ...JUnitSuite) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("testsuites")
	root.CreateAttr("name", "scalpel-e2e")
	total, failed := 0, 0
	timestamp := jw.now().UTC().Format(time.RFC3339)

	for _, s := range suites {
		el := root.CreateElement("testsuite")
		el.CreateAttr("name", s.Name)
		el.CreateAttr("tests", strconv.Itoa(len(s.Cases)))
		el.CreateAttr("failures", strconv.Itoa(s.Failures()))
		el.CreateAttr("errors", "0")
		el.CreateAttr("timestamp", timestamp)
		for _, c := range s.Cases {
			tc := el.CreateElement("testcase")
			tc.CreateAttr("name", c.Name)
			tc.CreateAttr("classname", c.ClassName)
			if c.Failure != "" {
				f := tc.CreateElement("failure")
				f.CreateAttr("message", c.Failure)
				f.CreateAttr("type", "threshold")
				f.SetText(c.Failure)
			}
		}
		total += len(s.Cases)
		failed += s.Failures()
	}
	root.CreateAttr("tests", strconv.Itoa(total))
	root.CreateAttr("failures", strconv.Itoa(failed))

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write junit report: %w", err)
	}
	return nil
}
