package provide

import "fmt"

// TemplateFileProviderShim lets a package's template compile against
// the package's own (in-progress) sources instead of a published
// release: any import of self matching Self's namespace and name is
// redirected to Project with the package spec stripped, provided the
// version also matches exactly. A namespace/name match against a
// different version is rejected, since silently compiling a template
// against a version other than the one declared would hide real
// version-compatibility bugs.
type TemplateFileProviderShim struct {
	Self     PackageSpec
	Project  FileProvider
	Template FileProvider
}

func (s *TemplateFileProviderShim) route(id FileID) (FileProvider, FileID, error) {
	if !id.HasPackage || !id.Package.SameName(s.Self) {
		return s.Template, id, nil
	}
	if !id.Package.Version.Equal(&s.Self.Version) {
		return nil, id, &FileError{
			Kind: ErrKindPackage,
			ID:   id,
			Err: fmt.Errorf("template imports %s@%s but is being tested as %s",
				s.Self.Namespace+"/"+s.Self.Name, id.Package.Version, s.Self.Version),
		}
	}
	return s.Project, id.WithoutPackage(), nil
}

func (s *TemplateFileProviderShim) ProvideSource(id FileID) (string, error) {
	p, routed, err := s.route(id)
	if err != nil {
		return "", err
	}
	return p.ProvideSource(routed)
}

func (s *TemplateFileProviderShim) ProvideBytes(id FileID) ([]byte, error) {
	p, routed, err := s.route(id)
	if err != nil {
		return nil, err
	}
	return p.ProvideBytes(routed)
}

func (s *TemplateFileProviderShim) ResetAll() {
	s.Project.ResetAll()
	s.Template.ResetAll()
}
