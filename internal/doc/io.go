package doc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Load reads a reference document from dir: files named "1.png",
// "2.png", ... in increasing order, with no gaps and nothing but a
// contiguous run starting at 1. Non-PNG entries, directories, and
// filenames that don't parse as a positive page number are ignored.
// Any gap in the numbering is rejected rather than silently
// compacted, since a missing page is almost always a stale or
// partially-regenerated reference directory.
func Load(dir string) (*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{Err: err}
	}

	pages := make(map[int]image.Image)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != "."+PageExtension {
			continue
		}

		stem := strings.TrimSuffix(name, filepath.Ext(name))
		num, err := strconv.Atoi(stem)
		if err != nil || num <= 0 {
			continue
		}

		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, &LoadError{Err: err}
		}
		img, err := png.Decode(f)
		closeErr := f.Close()
		if err != nil {
			return nil, &LoadError{Err: fmt.Errorf("decoding %s: %w", name, err)}
		}
		if closeErr != nil {
			return nil, &LoadError{Err: closeErr}
		}

		pages[num] = img
	}

	if len(pages) == 0 {
		return nil, &LoadError{MissingPages: nil}
	}

	nums := make([]int, 0, len(pages))
	for n := range pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	if nums[0] != 1 || nums[len(nums)-1] != len(nums) {
		return nil, &LoadError{MissingPages: nums}
	}

	ordered := make([]image.Image, len(nums))
	for i, n := range nums {
		ordered[i] = pages[n]
	}

	return &Document{Pages: ordered}, nil
}

// SaveOptions configures Save.
type SaveOptions struct {
	// Optimize, if set, post-processes each page's encoded PNG bytes
	// (e.g. a lossless recompression pass) before it is written.
	Optimize func([]byte) ([]byte, error)
}

// Save writes each page to dir as "{n}.png", 1-indexed. The directory
// must already exist.
func (d *Document) Save(dir string, opts *SaveOptions) error {
	for i, page := range d.Pages {
		num := i + 1
		path := filepath.Join(dir, strconv.Itoa(num)+"."+PageExtension)

		if err := savePage(path, page, opts); err != nil {
			return &SaveError{Page: num, Err: err}
		}
	}
	return nil
}

func savePage(path string, page image.Image, opts *SaveOptions) error {
	if opts != nil && opts.Optimize != nil {
		encoded, err := encodePNG(page)
		if err != nil {
			return err
		}
		optimized, err := opts.Optimize(encoded)
		if err != nil {
			return err
		}
		return os.WriteFile(path, optimized, 0o644)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, page)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
