// Package compiler is the narrow seam between the test runner and the
// embeddable typesetting compiler. The runner only ever needs to hand a
// composed provider environment to an engine, receive diagnostics and an
// opaque document back, and rasterize that document's pages; everything
// else about the engine stays behind these interfaces.
package compiler

import (
	"context"
	"image"

	"github.com/typst-community/tytanic/internal/provide"
)

// Diagnostic is a single compiler message, either an error or a warning
// depending on which Result slice carries it.
type Diagnostic struct {
	Message string
}

// Document is an engine's compiled output. Pages stay in the engine's
// own representation until a Renderer rasterizes them.
type Document interface {
	PageCount() int
}

// Result is the outcome of one compilation. A compilation passed when
// Errors is empty; Document is nil iff it failed.
type Result struct {
	Document Document
	Errors   []Diagnostic
	Warnings []Diagnostic
}

// Passed reports whether the compilation succeeded.
func (r *Result) Passed() bool { return len(r.Errors) == 0 }

// Compiler compiles the world's main file. Compilation failures are
// data, carried in Result.Errors; the returned error is reserved for
// engine faults (panics, broken invariants), which abort the whole run.
type Compiler interface {
	Compile(ctx context.Context, world provide.World) (*Result, error)
}

// Renderer rasterizes a compiled document's pages at the given
// pixel-per-point scale, in page order.
type Renderer interface {
	Render(d Document, pixelPerPt float64) ([]image.Image, error)
}
