package provide

import "time"

// Composer builds the per-test Environment the runner hands to the
// compiler: the same project file provider and font/library providers
// are reused across every test in a suite run, each environment gets a
// fresh system datetime provider, and the template redirection shim is
// only installed when the suite under test is itself a package.
type Composer struct {
	Project  FileProvider
	Fonts    FontProvider
	Library  LibraryProvider
	Clock    func() time.Time
	Self     *PackageSpec
	Template FileProvider

	// SystemFonts, if set, is swapped in for Fonts on tests annotated
	// with use-system-fonts(true).
	SystemFonts FontProvider

	// AugmentedLibrary, if set, is swapped in for Library on tests
	// annotated with use-augmented-library(true).
	AugmentedLibrary LibraryProvider
}

// NewEnvironment builds a fresh Environment for one test compilation.
// extraBindings augments the library with test-specific values (e.g. a
// `--with-test-id` style injection); pass nil for none.
func (c *Composer) NewEnvironment(extraBindings map[string]string) *Environment {
	files := c.Project
	if c.Self != nil && c.Template != nil {
		files = &TemplateFileProviderShim{Self: *c.Self, Project: c.Project, Template: c.Template}
	}

	lib := c.Library
	if len(extraBindings) > 0 {
		lib = NewAugmentedLibraryProvider(lib, extraBindings)
	}

	clock := c.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Environment{
		Files:     files,
		Fonts:     c.Fonts,
		Libraries: lib,
		Datetimes: NewSystemDatetimeProvider(clock),
	}
}

// Reset prepares every shared provider for the next compilation round,
// without discarding any cached content.
func (c *Composer) Reset() {
	c.Project.ResetAll()
	if c.Template != nil {
		c.Template.ResetAll()
	}
}
