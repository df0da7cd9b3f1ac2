package visual

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scalpel-e2e/internal/browser"
	"github.com/xkilldash9x/scalpel-e2e/internal/config"
)

type fakeCapturer struct {
	page    *image.RGBA
	element *image.RGBA
	boxes   map[string][]browser.Box
	err     error
}

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (f *fakeCapturer) Screenshot(context.Context, bool) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	var buf bytes.Buffer
	err := png.Encode(&buf, f.page)
	return buf.Bytes(), err
}

func (f *fakeCapturer) ElementScreenshot(context.Context, browser.Locator) ([]byte, error) {
	var buf bytes.Buffer
	err := png.Encode(&buf, f.element)
	return buf.Bytes(), err
}

func (f *fakeCapturer) ElementBoxes(_ context.Context, loc browser.Locator) ([]browser.Box, error) {
	return f.boxes[loc.Selector], nil
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

func newSnapshotter(t *testing.T, mutate ...func(*config.VisualConfig)) (*Snapshotter, string) {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.VisualCfg.SnapshotDir = filepath.Join(t.TempDir(), "snapshots")
	for _, m := range mutate {
		m(&cfg.VisualCfg)
	}
	return NewSnapshotter(cfg, zaptest.NewLogger(t)), cfg.VisualCfg.SnapshotDir
}

func TestMatch_CreatesMissingBaseline(t *testing.T) {
	s, dir := newSnapshotter(t)
	c := &fakeCapturer{page: solid(20, 10, white)}

	res, err := s.Match(context.Background(), c, "home-page")
	assert.ErrorIs(t, err, ErrBaselineCreated, "a new baseline must be reviewed")
	assert.True(t, res.Updated)
	assert.FileExists(t, filepath.Join(dir, "home-page.png"))

	res, err = s.Match(context.Background(), c, "home-page")
	require.NoError(t, err)
	assert.False(t, res.Updated)
	assert.Zero(t, res.DiffPixels)
	assert.Equal(t, 200, res.TotalPixels)
}

func TestMatch_UpdateMode(t *testing.T) {
	s, dir := newSnapshotter(t, func(v *config.VisualConfig) { v.Update = true })
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "login-form.png"), encode(t, solid(5, 5, white)), 0o644))

	c := &fakeCapturer{page: solid(8, 8, color.RGBA{A: 255})}
	res, err := s.Match(context.Background(), c, "login-form")
	require.NoError(t, err)
	assert.True(t, res.Updated)

	written, err := readPNG(res.BaselinePath)
	require.NoError(t, err)
	assert.Equal(t, 8, written.Bounds().Dx(), "update mode replaces the baseline")
}

func TestMatch_Mismatch(t *testing.T) {
	s, dir := newSnapshotter(t, func(v *config.VisualConfig) { v.MaxDiffRatio = 0.05 })
	c := &fakeCapturer{page: solid(10, 10, white)}
	_, err := s.Match(context.Background(), c, "page")
	require.ErrorIs(t, err, ErrBaselineCreated)

	// 4 of 100 pixels is within tolerance.
	changed := solid(10, 10, white)
	for x := 0; x < 4; x++ {
		changed.SetRGBA(x, 0, color.RGBA{A: 255})
	}
	c.page = changed
	res, err := s.Match(context.Background(), c, "page")
	require.NoError(t, err)
	assert.Equal(t, 4, res.DiffPixels)

	for x := 0; x < 10; x++ {
		changed.SetRGBA(x, 1, color.RGBA{A: 255})
	}
	res, err = s.Match(context.Background(), c, "page")
	require.ErrorIs(t, err, ErrMismatch)
	var mm *MismatchError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, 14, mm.Result.DiffPixels)
	assert.InDelta(t, 0.14, res.Ratio, 1e-9)
	assert.FileExists(t, filepath.Join(dir, "page-actual.png"))
	assert.FileExists(t, filepath.Join(dir, "page-diff.png"))

	diff, err := readPNG(res.DiffImagePath)
	require.NoError(t, err)
	r, g, _, _ := diff.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g, "differing pixels are red")
}

func TestMatch_SizeChangeAlwaysFails(t *testing.T) {
	s, _ := newSnapshotter(t, func(v *config.VisualConfig) { v.MaxDiffRatio = 1 })
	c := &fakeCapturer{page: solid(10, 10, white)}
	_, _ = s.Match(context.Background(), c, "page")

	c.page = solid(10, 12, white)
	_, err := s.Match(context.Background(), c, "page")
	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.Contains(t, mm.Reason, "size")
}

func TestMatch_ElementWithMasks(t *testing.T) {
	s, _ := newSnapshotter(t, func(v *config.VisualConfig) { v.Update = true })
	form := browser.ByCSS("form#registerForm")
	avatar := browser.ByCSS("img#userPicture")
	c := &fakeCapturer{
		element: solid(50, 40, white),
		boxes: map[string][]browser.Box{
			form.Selector:   {{X: 100, Y: 200, Width: 50, Height: 40}},
			avatar.Selector: {{X: 110, Y: 210, Width: 10, Height: 5}, {X: 500, Y: 500, Width: 10, Height: 10}},
		},
	}

	res, err := s.Match(context.Background(), c, "register-form", OfElement(form), WithMask(avatar))
	require.NoError(t, err)

	img, err := readPNG(res.BaselinePath)
	require.NoError(t, err)
	assert.Equal(t, MaskColor, color.RGBAModel.Convert(img.At(10, 10)), "mask is shifted into element coordinates")
	assert.Equal(t, MaskColor, color.RGBAModel.Convert(img.At(19, 14)))
	assert.Equal(t, white, color.RGBAModel.Convert(img.At(20, 10)))
	assert.Equal(t, white, color.RGBAModel.Convert(img.At(49, 39)), "boxes outside the element are clipped")
}

func TestMatch_MaskedContentIsIgnored(t *testing.T) {
	s, _ := newSnapshotter(t)
	avatar := browser.ByCSS("img#userPicture")
	c := &fakeCapturer{page: solid(30, 30, white), boxes: map[string][]browser.Box{avatar.Selector: {{X: 5, Y: 5, Width: 10, Height: 10}}}}
	_, err := s.Match(context.Background(), c, "masked", WithMask(avatar))
	require.ErrorIs(t, err, ErrBaselineCreated)

	c.page = solid(30, 30, white)
	for y := 5; y < 15; y++ {
		for x := 5; x < 15; x++ {
			c.page.SetRGBA(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	res, err := s.Match(context.Background(), c, "masked", WithMask(avatar))
	require.NoError(t, err)
	assert.Zero(t, res.DiffPixels)
}

func TestMatch_Errors(t *testing.T) {
	s, _ := newSnapshotter(t)
	_, err := s.Match(context.Background(), &fakeCapturer{}, "../escape")
	assert.ErrorContains(t, err, "invalid snapshot name")

	boom := errors.New("capture failed")
	_, err = s.Match(context.Background(), &fakeCapturer{err: boom}, "page")
	assert.ErrorIs(t, err, boom)

	_, err = s.Match(context.Background(), &fakeCapturer{boxes: map[string][]browser.Box{}}, "el", OfElement(browser.ByCSS("form")))
	assert.ErrorContains(t, err, "no element matches")
}

func TestCompareThreshold(t *testing.T) {
	a := solid(2, 1, white)
	b := solid(2, 1, white)
	b.SetRGBA(0, 0, color.RGBA{R: 250, G: 250, B: 250, A: 255})

	_, n := Compare(a, b, 0.1)
	assert.Zero(t, n, "anti-aliasing noise is below the threshold")
	_, n = Compare(a, b, 0)
	assert.Equal(t, 1, n)
}
