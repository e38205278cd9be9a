package provide

import (
	"os"
	"sync"
)

// EmbeddedFontProvider serves a fixed set of fonts baked into the
// binary or loaded once at startup, the default used by unit tests and
// any run where font discovery isn't wanted.
type EmbeddedFontProvider struct {
	book  *FontBook
	fonts []Font
}

// NewEmbeddedFontProvider indexes fonts for lookup by name.
func NewEmbeddedFontProvider(fonts []Font) *EmbeddedFontProvider {
	return &EmbeddedFontProvider{book: newFontBook(fonts), fonts: fonts}
}

func (p *EmbeddedFontProvider) FontBook() *FontBook { return p.book }

func (p *EmbeddedFontProvider) ProvideFont(index int) (Font, bool) {
	if index < 0 || index >= len(p.fonts) {
		return Font{}, false
	}
	return p.fonts[index], true
}

// SystemFontProvider lazily loads font files discovered at construction
// time from a list of font file paths, only reading bytes off disk the
// first time a given index is actually requested.
type SystemFontProvider struct {
	book  *FontBook
	paths []string

	mu    sync.Mutex
	cache map[int][]byte
}

// NewSystemFontProvider builds a font book from paths by reading just
// enough of each file to learn its declared name.
func NewSystemFontProvider(paths []string, nameOf func(path string) (string, error)) (*SystemFontProvider, error) {
	names := make([]Font, 0, len(paths))
	for _, p := range paths {
		name, err := nameOf(p)
		if err != nil {
			return nil, err
		}
		names = append(names, Font{Name: name})
	}
	return &SystemFontProvider{book: newFontBook(names), paths: paths, cache: make(map[int][]byte)}, nil
}

func (p *SystemFontProvider) FontBook() *FontBook { return p.book }

func (p *SystemFontProvider) ProvideFont(index int) (Font, bool) {
	if index < 0 || index >= len(p.paths) {
		return Font{}, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	data, ok := p.cache[index]
	if !ok {
		raw, err := os.ReadFile(p.paths[index])
		if err != nil {
			return Font{}, false
		}
		data = raw
		p.cache[index] = raw
	}

	name, _ := p.book.nameAt(index)
	return Font{Name: name, Data: data}, true
}

func (b *FontBook) nameAt(index int) (string, bool) {
	for name, indices := range b.names {
		for _, i := range indices {
			if i == index {
				return name, true
			}
		}
	}
	return "", false
}
