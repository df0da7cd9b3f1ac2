// internal/reporting/markdown.go
package reporting

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
)

// WriteAccessibilityMarkdown renders the consolidated accessibility report as a CI job summary.
func WriteAccessibilityMarkdown(w io.Writer, report *AccessibilityReport) error {
	md := markdown.NewMarkdown(w)
	md.H1(report.Title)
	md.PlainText("")

	rows := make([][]string, 0, len(report.Pages))
	for _, p := range report.Pages {
		if !p.Found() {
			rows = append(rows, []string{p.Title, "⚠️ not found", "-", "-", "-", "-"})
			continue
		}
		s := p.Summary
		rows = append(rows, []string{
			p.Title,
			strconv.Itoa(s.TotalViolations),
			strconv.Itoa(s.Impacts.Critical),
			strconv.Itoa(s.Impacts.Serious),
			strconv.Itoa(s.Impacts.Moderate),
			strconv.Itoa(s.Impacts.Minor),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Page", "Total", "Critical", "Serious", "Moderate", "Minor"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, p := range report.Pages {
		if !p.Found() {
			continue
		}
		md.H2(p.Title)
		md.PlainText("")
		if len(p.Top) == 0 {
			md.PlainText("✓ No violations found!")
			md.PlainText("")
			continue
		}
		items := make([]string, 0, len(p.Top)+1)
		for _, v := range p.Top {
			items = append(items, "**"+string(v.Impact)+"** `"+v.RuleID+"` "+v.Description+" ("+strconv.Itoa(v.Count)+")")
		}
		if p.More > 0 {
			items = append(items, "And "+strconv.Itoa(p.More)+" more violations...")
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	md.PlainText("Generated: " + report.Generated())
	return md.Build()
}

// WritePerformanceMarkdown renders the consolidated Lighthouse report as a CI job summary.
// Columns follow the category order of the first readable page.
func WritePerformanceMarkdown(w io.Writer, report *PerformanceReport) error {
	md := markdown.NewMarkdown(w)
	md.H1(report.Title)
	md.PlainText("")

	var ids, titles []string
	for _, p := range report.Pages {
		if p.Found() {
			for _, c := range p.Summary.Cards {
				ids = append(ids, c.ID)
				titles = append(titles, c.Title)
			}
			break
		}
	}

	rows := make([][]string, 0, len(report.Pages))
	for _, p := range report.Pages {
		row := []string{p.Title}
		if !p.Found() {
			for range ids {
				row = append(row, "-")
			}
			rows = append(rows, append(row, "⚠️ not found"))
			continue
		}
		byID := make(map[string]ScoreCard, len(p.Summary.Cards))
		for _, c := range p.Summary.Cards {
			byID[c.ID] = c
		}
		for _, id := range ids {
			c, ok := byID[id]
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, bucketEmoji(c.Bucket)+" "+c.Display())
		}
		rows = append(rows, append(row, "ok"))
	}

	header := append(append([]string{"Page"}, titles...), "Status")
	md.Table(markdown.TableSet{Header: header, Rows: rows})
	md.PlainText("")
	md.PlainText("Generated: " + report.Generated())
	return md.Build()
}

func bucketEmoji(b Bucket) string {
	switch b {
	case BucketGood:
		return "🟢"
	case BucketAverage:
		return "🟠"
	default:
		return "🔴"
	}
}
