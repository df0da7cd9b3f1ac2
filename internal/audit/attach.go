// internal/audit/attach.go
package audit

// Attacher registers a written artifact with the run's report output.
type Attacher interface {
	Attach(name, path, contentType string) error
}

// AttacherFunc adapts a function to Attacher.
type AttacherFunc func(name, path, contentType string) error

func (f AttacherFunc) Attach(name, path, contentType string) error { return f(name, path, contentType) }

type noopAttacher struct{}

func (noopAttacher) Attach(string, string, string) error { return nil }
