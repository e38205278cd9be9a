// Package doc manages rendered test documents: individual pages stored
// as PNG pixmaps, loaded from and saved to disk, and composited into
// difference images for visual failure inspection.
package doc

import "image"

// PageExtension is the file extension each page is stored under.
const PageExtension = "png"

// Document is a sequence of rendered pages, either freshly produced by
// a compilation or loaded back from a reference directory on disk.
type Document struct {
	Pages []image.Image
}

// New wraps an already-rendered page sequence.
func New(pages []image.Image) *Document {
	return &Document{Pages: pages}
}
