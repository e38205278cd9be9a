// Package provide composes pluggable file, font, library, and datetime
// providers into a per-test compilation environment, with shared caches
// and a package-import redirection shim for testing a package against
// its own template.
package provide

import (
	"fmt"
	"path"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// PackageSpec identifies a package import: `namespace/name@major.minor.patch`.
// The version is held by value so PackageSpec (and FileID) stay
// comparable map keys.
type PackageSpec struct {
	Namespace string
	Name      string
	Version   semver.Version
}

func (s PackageSpec) String() string {
	return fmt.Sprintf("%s/%s@%s", s.Namespace, s.Name, s.Version)
}

// SameName reports whether s and o refer to the same namespace/name,
// ignoring version.
func (s PackageSpec) SameName(o PackageSpec) bool {
	return s.Namespace == o.Namespace && s.Name == o.Name
}

// ParsePackageSpec parses `namespace/name@major.minor.patch`. The
// version must carry all three fields; StrictNewVersion rejects the
// shortened forms semver.NewVersion would coerce.
func ParsePackageSpec(s string) (PackageSpec, error) {
	ns, rest, ok := strings.Cut(s, "/")
	if !ok {
		return PackageSpec{}, fmt.Errorf("provide: invalid package spec %q: missing namespace", s)
	}
	name, verStr, ok := strings.Cut(rest, "@")
	if !ok {
		return PackageSpec{}, fmt.Errorf("provide: invalid package spec %q: missing version", s)
	}

	version, err := semver.StrictNewVersion(verStr)
	if err != nil {
		return PackageSpec{}, fmt.Errorf("provide: invalid package spec %q: %w", s, err)
	}

	return PackageSpec{Namespace: ns, Name: name, Version: *version}, nil
}

// FileID identifies a file, either rooted in the project (no package)
// or inside a package import. It is comparable and usable as a map key.
type FileID struct {
	HasPackage bool
	Package    PackageSpec
	Path       string
}

// NewFileID builds a project-local file id from a root-relative path.
func NewFileID(vpath string) FileID {
	return FileID{Path: normalizeVPath(vpath)}
}

// NewPackageFileID builds a file id inside the given package.
func NewPackageFileID(spec PackageSpec, vpath string) FileID {
	return FileID{HasPackage: true, Package: spec, Path: normalizeVPath(vpath)}
}

// WithoutPackage returns the same path as a project-local id, dropping
// any package spec. Used by the redirection shim to strip the self-
// package when handing a file id to the project's own file provider.
func (id FileID) WithoutPackage() FileID {
	return FileID{Path: id.Path}
}

func normalizeVPath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func (id FileID) String() string {
	if id.HasPackage {
		return id.Package.String() + id.Path
	}
	return id.Path
}
