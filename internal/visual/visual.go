// Package visual compares page screenshots against PNG baselines kept in the repository.
package visual

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-e2e/internal/artifact"
	"github.com/xkilldash9x/scalpel-e2e/internal/browser"
	"github.com/xkilldash9x/scalpel-e2e/internal/config"
)

var (
	// ErrBaselineCreated is returned the first time a snapshot is taken outside update mode.
	// The baseline has been written and the caller should fail so it gets reviewed.
	ErrBaselineCreated = errors.New("baseline snapshot created")
	// ErrMismatch is returned when the screenshot differs from its baseline beyond tolerance.
	ErrMismatch = errors.New("screenshot does not match baseline")
)

// MaskColor paints masked regions before comparison.
var MaskColor = color.RGBA{R: 255, G: 0, B: 255, A: 255}

var snapshotName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// Result describes one comparison.
type Result struct {
	Name          string
	BaselinePath  string
	DiffPixels    int
	TotalPixels   int
	Ratio         float64
	Updated       bool
	ActualPath    string
	DiffImagePath string
}

// MismatchError carries the comparison that failed.
type MismatchError struct {
	Result Result
	Reason string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %s (%d of %d pixels differ, ratio %.4f); see %s",
		e.Result.Name, e.Reason, e.Result.DiffPixels, e.Result.TotalPixels, e.Result.Ratio, e.Result.DiffImagePath)
}

func (e *MismatchError) Unwrap() error { return ErrMismatch }

type matchOptions struct {
	element *browser.Locator
	masks   []browser.Locator
}

// MatchOption configures a single Match call.
type MatchOption func(*matchOptions)

// OfElement captures only the first element matching loc instead of the full page.
func OfElement(loc browser.Locator) MatchOption {
	return func(o *matchOptions) { o.element = &loc }
}

// WithMask paints every element matching the locators before comparing.
func WithMask(locs ...browser.Locator) MatchOption {
	return func(o *matchOptions) { o.masks = append(o.masks, locs...) }
}

// Snapshotter owns a baseline directory.
type Snapshotter struct {
	cfg    config.VisualConfig
	logger *zap.Logger
}

// NewSnapshotter reads baselines from the configured snapshot directory.
func NewSnapshotter(cfg config.Interface, logger *zap.Logger) *Snapshotter {
	return &Snapshotter{cfg: cfg.Visual(), logger: logger.Named("visual")}
}

// Match captures a screenshot and compares it with <dir>/<name>.png.
func (s *Snapshotter) Match(ctx context.Context, c browser.Capturer, name string, opts ...MatchOption) (Result, error) {
	res := Result{Name: name, BaselinePath: filepath.Join(s.cfg.SnapshotDir, name+".png")}
	if !snapshotName.MatchString(name) {
		return res, fmt.Errorf("invalid snapshot name %q", name)
	}
	var o matchOptions
	for _, opt := range opts {
		opt(&o)
	}

	actual, err := s.capture(ctx, c, o)
	if err != nil {
		return res, err
	}

	baseline, err := readPNG(res.BaselinePath)
	switch {
	case s.cfg.Update || errors.Is(err, os.ErrNotExist):
		if err := writePNG(res.BaselinePath, actual); err != nil {
			return res, err
		}
		res.Updated = true
		s.logger.Info("Baseline snapshot written.", zap.String("name", name), zap.String("path", res.BaselinePath))
		if s.cfg.Update {
			return res, nil
		}
		return res, fmt.Errorf("%w: %s", ErrBaselineCreated, res.BaselinePath)
	case err != nil:
		return res, err
	}

	diff, n := Compare(baseline, actual, s.cfg.Threshold)
	res.TotalPixels = actual.Bounds().Dx() * actual.Bounds().Dy()
	res.DiffPixels = n
	if res.TotalPixels > 0 {
		res.Ratio = float64(n) / float64(res.TotalPixels)
	}

	reason := ""
	switch {
	case baseline.Bounds().Size() != actual.Bounds().Size():
		reason = fmt.Sprintf("size %v differs from baseline %v", actual.Bounds().Size(), baseline.Bounds().Size())
	case res.Ratio > s.cfg.MaxDiffRatio:
		reason = fmt.Sprintf("diff ratio exceeds %.4f", s.cfg.MaxDiffRatio)
	default:
		return res, nil
	}

	res.ActualPath = filepath.Join(s.cfg.SnapshotDir, name+"-actual.png")
	res.DiffImagePath = filepath.Join(s.cfg.SnapshotDir, name+"-diff.png")
	if err := writePNG(res.ActualPath, actual); err != nil {
		return res, err
	}
	if err := writePNG(res.DiffImagePath, diff); err != nil {
		return res, err
	}
	s.logger.Warn("Snapshot mismatch.", zap.String("name", name), zap.Int("diff_pixels", n), zap.Float64("ratio", res.Ratio))
	return res, &MismatchError{Result: res, Reason: reason}
}

func (s *Snapshotter) capture(ctx context.Context, c browser.Capturer, o matchOptions) (*image.RGBA, error) {
	var (
		raw    []byte
		err    error
		origin image.Point
	)
	if o.element != nil {
		boxes, berr := c.ElementBoxes(ctx, *o.element)
		if berr != nil {
			return nil, berr
		}
		if len(boxes) == 0 {
			return nil, fmt.Errorf("no element matches %s", o.element)
		}
		origin = image.Pt(int(math.Round(boxes[0].X)), int(math.Round(boxes[0].Y)))
		raw, err = c.ElementScreenshot(ctx, *o.element)
	} else {
		raw, err = c.Screenshot(ctx, true)
	}
	if err != nil {
		return nil, err
	}

	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	rgba := toRGBA(img)

	for _, m := range o.masks {
		boxes, err := c.ElementBoxes(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("failed to locate mask %s: %w", m, err)
		}
		for _, b := range boxes {
			Paint(rgba, b, origin)
		}
	}
	return rgba, nil
}

// Paint fills box, given in document coordinates, after shifting it by -origin.
func Paint(img *image.RGBA, box browser.Box, origin image.Point) {
	r := image.Rect(
		int(math.Floor(box.X)), int(math.Floor(box.Y)),
		int(math.Ceil(box.X+box.Width)), int(math.Ceil(box.Y+box.Height)),
	).Sub(origin).Add(img.Bounds().Min).Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(img, r, &image.Uniform{C: MaskColor}, image.Point{}, draw.Src)
}

// Compare counts pixels whose normalized RGBA distance exceeds threshold (0..1). The diff image
// highlights differing pixels in red over a faded copy of want. Pixels outside the overlap of
// the two images count as different.
func Compare(want, got image.Image, threshold float64) (*image.RGBA, int) {
	wb, gb := want.Bounds(), got.Bounds()
	w := max(wb.Dx(), gb.Dx())
	h := max(wb.Dy(), gb.Dy())
	diff := image.NewRGBA(image.Rect(0, 0, w, h))

	n := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			wp := image.Pt(wb.Min.X+x, wb.Min.Y+y)
			gp := image.Pt(gb.Min.X+x, gb.Min.Y+y)
			if !wp.In(wb) || !gp.In(gb) {
				diff.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
				n++
				continue
			}
			wc, gc := want.At(wp.X, wp.Y), got.At(gp.X, gp.Y)
			if distance(wc, gc) > threshold {
				diff.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
				n++
				continue
			}
			r, g, b, _ := wc.RGBA()
			gray := uint8((r + g + b) / 3 >> 8)
			faded := 255 - (255-gray)/10
			diff.SetRGBA(x, y, color.RGBA{R: faded, G: faded, B: faded, A: 255})
		}
	}
	return diff, n
}

func distance(a, b color.Color) float64 {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	d := func(x, y uint32) float64 { return (float64(x) - float64(y)) / 0xffff }
	sum := d(ar, br)*d(ar, br) + d(ag, bg)*d(ag, bg) + d(ab, bb)*d(ab, bb) + d(aa, ba)*d(aa, ba)
	return math.Sqrt(sum) / 2
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode baseline %s: %w", path, err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return artifact.WriteFile(path, buf.Bytes())
}
