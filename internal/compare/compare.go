// Package compare implements the simple pixel-comparison strategy used
// to decide whether a rendered document matches its reference.
package compare

import (
	"fmt"
	"image"

	"github.com/typst-community/tytanic/internal/doc"
)

// Strategy configures the simple comparator.
type Strategy struct {
	// MaxDelta is the largest per-channel absolute difference that is
	// still considered identical.
	MaxDelta uint8
	// MaxDeviations is the largest number of differing pixels a page
	// may have before it counts as a failure.
	MaxDeviations int
}

// Dimensions describes a page-size mismatch.
type Dimensions struct {
	Output    image.Point
	Reference image.Point
}

// Deviations describes the count of pixels exceeding MaxDelta.
type Deviations struct {
	Count int
}

// PageError is one page's comparison failure.
type PageError struct {
	Index      int
	Dimensions *Dimensions
	Deviations *Deviations
}

func (e PageError) Error() string {
	switch {
	case e.Dimensions != nil:
		return fmt.Sprintf("page %d: dimensions differ: output=%v reference=%v", e.Index, e.Dimensions.Output, e.Dimensions.Reference)
	case e.Deviations != nil:
		return fmt.Sprintf("page %d: %d pixels exceed the delta threshold", e.Index, e.Deviations.Count)
	default:
		return fmt.Sprintf("page %d: mismatch", e.Index)
	}
}

// Error is returned by Compare when output and reference differ.
type Error struct {
	Output    int
	Reference int
	Pages     []PageError
}

func (e *Error) Error() string {
	return fmt.Sprintf("compare: %d output page(s), %d reference page(s), %d page error(s)", e.Output, e.Reference, len(e.Pages))
}

// Compare compares out against ref page by page using strategy,
// returning nil when every aligned page matches and the page counts
// are equal, or *Error describing every mismatch otherwise.
func Compare(out, ref *doc.Document, strategy Strategy) error {
	outLen := len(out.Pages)
	refLen := len(ref.Pages)

	n := outLen
	if refLen < n {
		n = refLen
	}

	var pageErrors []PageError
	for i := 0; i < n; i++ {
		if err := page(out.Pages[i], ref.Pages[i], strategy); err != nil {
			err.Index = i
			pageErrors = append(pageErrors, *err)
		}
	}

	if len(pageErrors) > 0 || outLen != refLen {
		return &Error{Output: outLen, Reference: refLen, Pages: pageErrors}
	}
	return nil
}

func page(out, ref image.Image, strategy Strategy) *PageError {
	ob := out.Bounds()
	rb := ref.Bounds()

	if ob.Dx() != rb.Dx() || ob.Dy() != rb.Dy() {
		return &PageError{Dimensions: &Dimensions{
			Output:    image.Pt(ob.Dx(), ob.Dy()),
			Reference: image.Pt(rb.Dx(), rb.Dy()),
		}}
	}

	deviations := 0
	for y := 0; y < ob.Dy(); y++ {
		for x := 0; x < ob.Dx(); x++ {
			or, og, obl, oa := out.At(ob.Min.X+x, ob.Min.Y+y).RGBA()
			rr, rg, rb2, ra := ref.At(rb.Min.X+x, rb.Min.Y+y).RGBA()

			if exceedsDelta(or, rr, strategy.MaxDelta) ||
				exceedsDelta(og, rg, strategy.MaxDelta) ||
				exceedsDelta(obl, rb2, strategy.MaxDelta) ||
				exceedsDelta(oa, ra, strategy.MaxDelta) {
				deviations++
			}
		}
	}

	if deviations > strategy.MaxDeviations {
		return &PageError{Deviations: &Deviations{Count: deviations}}
	}
	return nil
}

// exceedsDelta compares two 16-bit RGBA channel samples, downscaled to
// the 8-bit domain max_delta is expressed in.
func exceedsDelta(a, b uint32, maxDelta uint8) bool {
	a8 := uint8(a >> 8)
	b8 := uint8(b >> 8)
	var d uint8
	if a8 > b8 {
		d = a8 - b8
	} else {
		d = b8 - a8
	}
	return d > maxDelta
}
