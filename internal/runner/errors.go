package runner

import (
	"errors"
	"fmt"

	"github.com/typst-community/tytanic/internal/ident"
)

// ErrDocTestsUnsupported is returned when a doc test reaches the
// runner. Doc tests are modeled in the identifier grammar but no
// extraction pipeline exists for them yet, so encountering one is an
// integration mistake rather than a test failure.
var ErrDocTestsUnsupported = errors.New("runner: doc tests are not supported")

// TestError wraps a catastrophic fault that occurred while driving a
// specific test, carrying the offending identifier. Test failures
// themselves are never wrapped in a TestError; they are recorded in the
// trace as data.
type TestError struct {
	Ident ident.Ident
	Err   error
}

func (e *TestError) Error() string {
	return fmt.Sprintf("runner: test %s: %v", e.Ident, e.Err)
}

func (e *TestError) Unwrap() error { return e.Err }

// Fault wraps a catastrophic fault not attributable to any single test,
// such as a reporter or exporter I/O error.
type Fault struct {
	Err error
}

func (e *Fault) Error() string {
	return fmt.Sprintf("runner: %v", e.Err)
}

func (e *Fault) Unwrap() error { return e.Err }
