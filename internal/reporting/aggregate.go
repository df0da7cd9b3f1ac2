// internal/reporting/aggregate.go
package reporting

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-e2e/internal/artifact"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").ParseFS(templateFS, "templates/*.tmpl"))

// TimestampLayout formats the generation time in consolidated documents.
const TimestampLayout = "2006-01-02 15:04:05 MST"

// ArtifactError records a per-page artifact that could not be read or parsed.
// Aggregators convert it into a placeholder instead of failing the run.
type ArtifactError struct {
	Page string
	Path string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact for %s (%s): %v", e.Page, e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// Missing reports whether the artifact simply does not exist yet.
func (e *ArtifactError) Missing() bool { return os.IsNotExist(e.Err) }

// AggregatorOption customizes either aggregator.
type AggregatorOption func(*aggregator)

// WithClock overrides the generation timestamp clock.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *aggregator) { a.now = now }
}

// WithPages overrides the configured page identifier list.
func WithPages(pages ...string) AggregatorOption {
	return func(a *aggregator) { a.pages = append([]string(nil), pages...) }
}

// WithMarkdown toggles the consolidated-report.md companion document.
func WithMarkdown(enabled bool) AggregatorOption {
	return func(a *aggregator) { a.markdown = enabled }
}

type aggregator struct {
	dir      string
	pages    []string
	markdown bool
	logger   *zap.Logger
	now      func() time.Time
}

func newAggregator(dir string, pages []string, markdown bool, logger *zap.Logger, opts []AggregatorOption) aggregator {
	a := aggregator{
		dir:      dir,
		pages:    append([]string(nil), pages...),
		markdown: markdown,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// readArtifact loads one per-page artifact and hands it to parse. Failures come back as *ArtifactError.
func readArtifact[T any](dir, page, name string, parse func(io.Reader) (T, error)) (T, *ArtifactError) {
	var zero T
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return zero, &ArtifactError{Page: page, Path: path, Err: err}
	}
	defer f.Close()

	v, err := parse(f)
	if err != nil {
		return zero, &ArtifactError{Page: page, Path: path, Err: err}
	}
	return v, nil
}

func (a *aggregator) render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// write atomically replaces the consolidated HTML and, when enabled, its markdown companion.
func (a *aggregator) write(ctx context.Context, html []byte, md func(*bytes.Buffer) error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(a.dir, artifact.ConsolidatedHTML)
	if err := artifact.WriteFile(path, html); err != nil {
		return "", err
	}
	if a.markdown {
		var buf bytes.Buffer
		if err := md(&buf); err != nil {
			return path, fmt.Errorf("failed to render markdown summary: %w", err)
		}
		if err := artifact.WriteFile(filepath.Join(a.dir, artifact.ConsolidatedMarkdown), buf.Bytes()); err != nil {
			return path, err
		}
	}
	return path, nil
}

// PageTitle turns a page identifier such as "register-page" into "Register Page".
func PageTitle(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "-", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
