package provide

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// PackageResolver locates the on-disk directory backing a package
// import, e.g. by consulting a package cache directory laid out the
// way the typst CLI itself expects.
type PackageResolver func(spec PackageSpec) (string, error)

// FilesystemFileProvider serves files from a project root directory,
// plus any number of package roots resolved on demand. Every read is
// cached by FileID and skipped on repeat access within one
// compilation; across compilations, only content whose fingerprint
// changed is re-decoded.
type FilesystemFileProvider struct {
	root     string
	resolver PackageResolver
	cache    *SlotCache
}

// NewFilesystemFileProvider roots file lookups at root, resolving
// package imports through resolver (nil disables package imports),
// with a cache of its own.
func NewFilesystemFileProvider(root string, resolver PackageResolver) *FilesystemFileProvider {
	return NewFilesystemFileProviderWithCache(root, resolver, NewSlotCache())
}

// NewFilesystemFileProviderWithCache is like NewFilesystemFileProvider
// but shares cache with other providers serving the same logical
// project.
func NewFilesystemFileProviderWithCache(root string, resolver PackageResolver, cache *SlotCache) *FilesystemFileProvider {
	return &FilesystemFileProvider{root: root, resolver: resolver, cache: cache}
}

func (p *FilesystemFileProvider) systemPath(id FileID) (string, error) {
	base := p.root
	if id.HasPackage {
		if p.resolver == nil {
			return "", &FileError{Kind: ErrKindPackage, ID: id, Err: fmt.Errorf("no package resolver configured")}
		}
		resolved, err := p.resolver(id.Package)
		if err != nil {
			return "", &FileError{Kind: ErrKindPackage, ID: id, Err: err}
		}
		base = resolved
	}

	// id.Path is always cleaned and rooted at "/"; joining under base
	// and re-cleaning cannot escape base unless base itself is hostile.
	joined := filepath.Join(base, filepath.FromSlash(id.Path))
	rel, err := filepath.Rel(base, joined)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", &FileError{Kind: ErrKindAccessDenied, ID: id}
	}
	return joined, nil
}

func (p *FilesystemFileProvider) readRaw(id FileID) ([]byte, error) {
	sysPath, err := p.systemPath(id)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(sysPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &FileError{Kind: ErrKindNotFound, ID: id}
		}
		return nil, &FileError{Kind: ErrKindIO, ID: id, Err: err}
	}
	if info.IsDir() {
		return nil, &FileError{Kind: ErrKindIsDirectory, ID: id}
	}

	data, err := os.ReadFile(sysPath)
	if err != nil {
		if os.IsPermission(err) {
			return nil, &FileError{Kind: ErrKindAccessDenied, ID: id}
		}
		return nil, &FileError{Kind: ErrKindIO, ID: id, Err: err}
	}
	return data, nil
}

func (p *FilesystemFileProvider) ProvideBytes(id FileID) ([]byte, error) {
	c := p.cache.bytesCell(id)
	v, err := c.getOrInit(
		func() ([]byte, error) { return p.readRaw(id) },
		func(b []byte) ([]byte, error) {
			out := make([]byte, len(b))
			copy(out, b)
			return out, nil
		},
	)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (p *FilesystemFileProvider) ProvideSource(id FileID) (string, error) {
	c := p.cache.sourceCell(id)
	return c.getOrInit(
		func() ([]byte, error) { return p.readRaw(id) },
		func(b []byte) (string, error) { return decodeUTF8Source(id, b) },
	)
}

// decodeUTF8Source strips a leading UTF-8 BOM and validates the
// remaining bytes as UTF-8 text, the same rule the compiler's own
// loader applies when it reads a .typ file off disk.
func decodeUTF8Source(id FileID, b []byte) (string, error) {
	b = bytes.TrimPrefix(b, utf8BOM)
	if !utf8.Valid(b) {
		return "", &FileError{Kind: ErrKindNotSource, ID: id, Err: fmt.Errorf("file is not valid utf-8")}
	}
	return string(b), nil
}

func (p *FilesystemFileProvider) ResetAll() {
	p.cache.Reset()
}

// WalkSourceFiles visits every .typ file under root (outside any
// package import), depth first, yielding project-local file ids.
func (p *FilesystemFileProvider) WalkSourceFiles(visit func(FileID) error) error {
	return filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".typ" {
			return nil
		}
		rel, err := filepath.Rel(p.root, path)
		if err != nil {
			return err
		}
		return visit(NewFileID(filepath.ToSlash(rel)))
	})
}
