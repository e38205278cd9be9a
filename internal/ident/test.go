package ident

// UnitKind further classifies a Unit test by how its reference is
// obtained.
type UnitKind uint8

const (
	// Ephemeral unit tests compile a sibling reference script on the fly.
	Ephemeral UnitKind = iota
	// Persistent unit tests compare against PNGs stored on disk.
	Persistent
	// CompileOnly unit tests never run a comparison stage.
	CompileOnly
)

func (k UnitKind) String() string {
	switch k {
	case Ephemeral:
		return "ephemeral"
	case Persistent:
		return "persistent"
	case CompileOnly:
		return "compile-only"
	default:
		return "unknown"
	}
}

// HasReferences reports whether tests of this kind are ever compared
// against a reference document.
func (k UnitKind) HasReferences() bool {
	return k == Ephemeral || k == Persistent
}

// Test is a single discovered test: its identifier, its unit sub-kind (if
// any), and the annotations parsed from its source.
type Test struct {
	Ident       Ident
	Unit        *UnitKind
	Annotations []Annotation
}

// NewTemplateTest constructs a template test.
func NewTemplateTest(annotations ...Annotation) Test {
	return Test{Ident: MustParse("@template"), Annotations: annotations}
}

// NewUnitTest constructs a unit test of the given sub-kind.
func NewUnitTest(id Ident, kind UnitKind, annotations ...Annotation) Test {
	k := kind
	return Test{Ident: id, Unit: &k, Annotations: annotations}
}

// NewDocTest constructs a doc test.
func NewDocTest(id Ident, annotations ...Annotation) Test {
	return Test{Ident: id, Annotations: annotations}
}

// HasSkip reports whether the test carries a `skip` annotation.
func (t Test) HasSkip() bool {
	for _, a := range t.Annotations {
		if a.Kind == AnnotationSkip {
			return true
		}
	}
	return false
}

// Find returns the last annotation of the given kind, if present. Tytanic
// lets a later annotation of the same kind override an earlier one, so the
// last match wins.
func (t Test) Find(kind AnnotationKind) (Annotation, bool) {
	var found Annotation
	ok := false
	for _, a := range t.Annotations {
		if a.Kind == kind {
			found, ok = a, true
		}
	}
	return found, ok
}
