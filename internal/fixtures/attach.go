// internal/fixtures/attach.go
package fixtures

import (
	"sync"
	"testing"
)

// Attachment is an artifact registered with a test.
type Attachment struct {
	Name        string
	Path        string
	ContentType string
}

// Attachments records artifacts written during a test and logs them so they show up in
// `go test -v` output next to the test that produced them.
type Attachments struct {
	t    testing.TB
	mu   sync.Mutex
	list []Attachment
}

func NewAttachments(t testing.TB) *Attachments {
	return &Attachments{t: t}
}

// Attach implements audit.Attacher.
func (a *Attachments) Attach(name, path, contentType string) error {
	a.mu.Lock()
	a.list = append(a.list, Attachment{Name: name, Path: path, ContentType: contentType})
	a.mu.Unlock()
	a.t.Logf("attachment %s (%s): %s", name, contentType, path)
	return nil
}

// List returns the attachments in registration order.
func (a *Attachments) List() []Attachment {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Attachment(nil), a.list...)
}
