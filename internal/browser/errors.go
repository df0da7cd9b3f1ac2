// internal/browser/errors.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrInteractionTimeout is returned when an element did not become actionable, or a
// navigation did not complete, within the configured bound.
var ErrInteractionTimeout = errors.New("browser interaction timed out")

// ErrSessionClosed is returned by any operation on a session after Close.
var ErrSessionClosed = errors.New("browser session is closed")

// InteractionError describes a failed action against a located element or the page.
type InteractionError struct {
	Op      string
	Target  string
	Timeout time.Duration
	Err     error
}

func (e *InteractionError) Error() string {
	if errors.Is(e.Err, ErrInteractionTimeout) {
		return fmt.Sprintf("%s %s: no result within %s: %v", e.Op, e.Target, e.Timeout, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *InteractionError) Unwrap() error { return e.Err }

// NavigationMismatchError is an assertion failure: the page settled on a URL that does
// not match the destination page's pattern.
type NavigationMismatchError struct {
	Want *regexp.Regexp
	Got  string
}

func (e *NavigationMismatchError) Error() string {
	return fmt.Sprintf("expected URL matching %q, got %q", e.Want.String(), e.Got)
}

// ExpectationError is an assertion failure on element state or content.
type ExpectationError struct {
	Target   string
	Expected string
	Actual   string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("expected %s to %s, got %q", e.Target, e.Expected, e.Actual)
}

// IsTimeout reports whether err is an interaction timeout rather than an assertion failure.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrInteractionTimeout)
}

// IsAssertion reports whether err is a navigation or expectation mismatch.
func IsAssertion(err error) bool {
	var nav *NavigationMismatchError
	var exp *ExpectationError
	return errors.As(err, &nav) || errors.As(err, &exp)
}

// classify turns a chromedp failure into the harness taxonomy. opCtx is the bounded
// context the action ran under and callerCtx is the one the test handed in.
func classify(op, target string, timeout time.Duration, opCtx, callerCtx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(opCtx.Err(), context.DeadlineExceeded) || errors.Is(callerCtx.Err(), context.DeadlineExceeded) {
		return &InteractionError{Op: op, Target: target, Timeout: timeout, Err: ErrInteractionTimeout}
	}
	return &InteractionError{Op: op, Target: target, Timeout: timeout, Err: err}
}
