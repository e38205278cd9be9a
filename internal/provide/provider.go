package provide

import "time"

// FileProvider exposes source and byte access for file ids. reset_all
// marks every cached entry not-yet-accessed in preparation for the
// next compilation; it never evicts.
type FileProvider interface {
	ProvideSource(id FileID) (string, error)
	ProvideBytes(id FileID) ([]byte, error)
	ResetAll()
}

// Font is a single loaded font: its display name and raw bytes. Parsing
// the bytes into glyph/shaping data is the compiler's job; this package
// only locates and caches the raw material.
type Font struct {
	Name string
	Data []byte
}

// FontBook indexes fonts by name for lookup.
type FontBook struct {
	names map[string][]int
	count int
}

func newFontBook(fonts []Font) *FontBook {
	b := &FontBook{names: make(map[string][]int, len(fonts)), count: len(fonts)}
	for i, f := range fonts {
		b.names[f.Name] = append(b.names[f.Name], i)
	}
	return b
}

// Select returns the indices of fonts registered under name.
func (b *FontBook) Select(name string) ([]int, bool) {
	idx, ok := b.names[name]
	return idx, ok
}

// Len returns the number of fonts in the book.
func (b *FontBook) Len() int { return b.count }

// FontProvider exposes font metadata and font data by index.
type FontProvider interface {
	FontBook() *FontBook
	ProvideFont(index int) (Font, bool)
}

// Library is the standard library exposed to a compilation, optionally
// enriched with test-specific bindings.
type Library struct {
	Bindings map[string]string
}

// LibraryProvider exposes the standard library for a compilation.
type LibraryProvider interface {
	ProvideLibrary() *Library
}

// DatetimeProvider exposes "today", optionally shifted by a timezone
// offset in hours. reset_today discards any cached value so the next
// compilation re-captures it.
type DatetimeProvider interface {
	ProvideToday(offsetHours *int) (time.Time, bool)
	ResetToday()
}
