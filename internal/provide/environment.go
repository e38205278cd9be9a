package provide

import "time"

// Environment composes the four provider capabilities the compiler
// needs for a single test's compilation. It is itself a FileProvider,
// FontProvider, LibraryProvider and DatetimeProvider, so the compiler
// package can depend on Environment alone rather than four interfaces.
type Environment struct {
	Files     FileProvider
	Fonts     FontProvider
	Libraries LibraryProvider
	Datetimes DatetimeProvider

	// MainID is the entry-point file the compiler should start from.
	MainID FileID
}

// Main returns the entry-point file id for this compilation.
func (e *Environment) Main() FileID { return e.MainID }

// World is the full capability set a compiler needs to drive one
// compilation: file, font, library and datetime access plus the entry
// point to compile from.
type World interface {
	FileProvider
	FontProvider
	LibraryProvider
	DatetimeProvider
	Main() FileID
}

func (e *Environment) ProvideSource(id FileID) (string, error) { return e.Files.ProvideSource(id) }
func (e *Environment) ProvideBytes(id FileID) ([]byte, error)  { return e.Files.ProvideBytes(id) }
func (e *Environment) ResetAll()                               { e.Files.ResetAll() }

func (e *Environment) FontBook() *FontBook                { return e.Fonts.FontBook() }
func (e *Environment) ProvideFont(index int) (Font, bool) { return e.Fonts.ProvideFont(index) }

func (e *Environment) ProvideLibrary() *Library { return e.Libraries.ProvideLibrary() }

func (e *Environment) ProvideToday(offsetHours *int) (time.Time, bool) {
	return e.Datetimes.ProvideToday(offsetHours)
}

func (e *Environment) ResetToday() { e.Datetimes.ResetToday() }

// Reset prepares the environment for the next compilation: every
// cached file is marked not-yet-accessed (but not discarded) and any
// captured "today" is cleared so it is recaptured on next use.
func (e *Environment) Reset() {
	e.ResetAll()
	e.ResetToday()
}
