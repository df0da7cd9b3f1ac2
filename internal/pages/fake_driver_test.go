// internal/pages/fake_driver_test.go
package pages

import (
	"context"
	"fmt"
	"sync"

	"github.com/xkilldash9x/scalpel-e2e/internal/browser"
)

// recordingDriver logs every call as "op target[=value]" and fails calls whose
// target is listed in fail.
type recordingDriver struct {
	mu    sync.Mutex
	calls []string
	url   string
	fail  map[string]error
}

func newRecordingDriver() *recordingDriver {
	return &recordingDriver{fail: map[string]error{}}
}

func (d *recordingDriver) record(op, target string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, op+" "+target)
	return d.fail[target]
}

func (d *recordingDriver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *recordingDriver) Navigate(_ context.Context, path string) error {
	if err := d.record("navigate", path); err != nil {
		return err
	}
	d.mu.Lock()
	d.url = "http://localhost:3000" + path
	d.mu.Unlock()
	return nil
}

func (d *recordingDriver) Click(_ context.Context, loc browser.Locator) error {
	return d.record("click", loc.String())
}

func (d *recordingDriver) Fill(_ context.Context, loc browser.Locator, value string) error {
	return d.record("fill", fmt.Sprintf("%s=%s", loc.String(), value))
}

func (d *recordingDriver) Check(_ context.Context, loc browser.Locator) error {
	return d.record("check", loc.String())
}

func (d *recordingDriver) Press(_ context.Context, key string) error {
	name := key
	if key == browser.KeyEscape {
		name = "Escape"
	}
	return d.record("press", name)
}

func (d *recordingDriver) Text(_ context.Context, loc browser.Locator) (string, error) {
	return "", d.record("text", loc.String())
}

func (d *recordingDriver) Visible(_ context.Context, loc browser.Locator) (bool, error) {
	return true, d.record("visible", loc.String())
}

func (d *recordingDriver) URL(context.Context) (string, error) {
	if err := d.record("url", ""); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, nil
}

func (d *recordingDriver) Evaluate(context.Context, string, any) error {
	return d.record("evaluate", "")
}
