package provide

import "fmt"

// NoPackagesFileProvider wraps a file provider and rejects any file id
// carrying a package spec. Installed per compilation when a test's
// allow-packages annotation (or the project default) forbids package
// imports.
type NoPackagesFileProvider struct {
	Inner FileProvider
}

func (p *NoPackagesFileProvider) guard(id FileID) error {
	if !id.HasPackage {
		return nil
	}
	return &FileError{
		Kind: ErrKindPackage,
		ID:   id,
		Err:  fmt.Errorf("package imports are forbidden for this test"),
	}
}

func (p *NoPackagesFileProvider) ProvideSource(id FileID) (string, error) {
	if err := p.guard(id); err != nil {
		return "", err
	}
	return p.Inner.ProvideSource(id)
}

func (p *NoPackagesFileProvider) ProvideBytes(id FileID) ([]byte, error) {
	if err := p.guard(id); err != nil {
		return nil, err
	}
	return p.Inner.ProvideBytes(id)
}

func (p *NoPackagesFileProvider) ResetAll() {
	p.Inner.ResetAll()
}
