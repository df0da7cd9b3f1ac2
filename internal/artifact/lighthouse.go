package artifact

import (
	"errors"
	"fmt"
	"io"

	json "github.com/json-iterator/go"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrNoCategories is returned when a Lighthouse document has no categories object.
var ErrNoCategories = errors.New("lighthouse report has no categories")

// LighthouseCategory is one graded category. Score is nil when Lighthouse could not grade it.
type LighthouseCategory struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Score *float64 `json:"score"`
}

// LighthouseReport is the subset of a Lighthouse JSON result the harness reads.
// Categories keep the order they appear in the document.
type LighthouseReport struct {
	LighthouseVersion string `json:"lighthouseVersion"`
	RequestedURL      string `json:"requestedUrl"`
	FinalURL          string `json:"finalUrl"`
	FinalDisplayedURL string `json:"finalDisplayedUrl"`
	FetchTime         string `json:"fetchTime"`

	Categories *orderedmap.OrderedMap[string, LighthouseCategory] `json:"-"`
}

// URL returns the audited URL, preferring what the browser finally displayed.
func (r *LighthouseReport) URL() string {
	switch {
	case r.FinalDisplayedURL != "":
		return r.FinalDisplayedURL
	case r.FinalURL != "":
		return r.FinalURL
	default:
		return r.RequestedURL
	}
}

// DecodeLighthouse reads a Lighthouse JSON document.
func DecodeLighthouse(r io.Reader) (*LighthouseReport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read lighthouse report: %w", err)
	}

	var envelope struct {
		LighthouseReport
		Categories json.RawMessage `json:"categories"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode lighthouse report: %w", err)
	}
	if len(envelope.Categories) == 0 || string(envelope.Categories) == "null" {
		return nil, ErrNoCategories
	}

	categories := orderedmap.New[string, LighthouseCategory]()
	if err := categories.UnmarshalJSON(envelope.Categories); err != nil {
		return nil, fmt.Errorf("failed to decode lighthouse categories: %w", err)
	}

	report := envelope.LighthouseReport
	report.Categories = categories
	return &report, nil
}
