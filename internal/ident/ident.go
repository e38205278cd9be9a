// Package ident implements tytanic's test identifier grammar:
//
//	template := "@template"
//	unit     := segment ("/" segment)*
//	doc      := unit-path "#" item (":" block)?
//	segment  := (letter | "_") (letter | digit | "_" | "-")*
//
// Identifiers are immutable, comparable, and ordered lexicographically.
package ident

import (
	"fmt"
	"strings"
)

// Kind classifies an Ident by its shape.
type Kind uint8

const (
	// Template identifies the literal "@template" test.
	Template Kind = iota
	// Unit identifies a unit test, addressed by a slash-separated path.
	Unit
	// Doc identifies a doc test, addressed by a unit path plus an item
	// and optional block.
	Doc
)

func (k Kind) String() string {
	switch k {
	case Template:
		return "template"
	case Unit:
		return "unit"
	case Doc:
		return "doc"
	default:
		return "unknown"
	}
}

// Ident is a parsed, validated test identifier. The zero value is not a
// valid Ident; construct one with Parse.
type Ident struct {
	raw  string
	kind Kind
}

// Parse validates and classifies s according to the identifier grammar.
func Parse(s string) (Ident, error) {
	kind, ok := classify(s)
	if !ok {
		return Ident{}, &ParseError{Input: s}
	}
	return Ident{raw: s, kind: kind}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// compile-time constants.
func MustParse(s string) Ident {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseError reports that a string does not match the identifier grammar.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ident: invalid identifier %q", e.Input)
}

// String returns the original, validated text of the identifier.
func (i Ident) String() string { return i.raw }

// Kind reports which grammar production i matched.
func (i Ident) Kind() Kind { return i.kind }

// IsTemplate reports whether i is the literal template identifier.
func (i Ident) IsTemplate() bool { return i.kind == Template }

// IsUnit reports whether i is a unit test identifier.
func (i Ident) IsUnit() bool { return i.kind == Unit }

// IsDoc reports whether i is a doc test identifier.
func (i Ident) IsDoc() bool { return i.kind == Doc }

// UnitPath returns the slash-separated path of a Unit or Doc identifier,
// and false for a Template identifier.
func (i Ident) UnitPath() (string, bool) {
	switch i.kind {
	case Unit:
		return i.raw, true
	case Doc:
		path, _, _ := splitDoc(i.raw)
		return path, true
	default:
		return "", false
	}
}

// DocItem returns the item name of a Doc identifier, and false otherwise.
func (i Ident) DocItem() (string, bool) {
	if i.kind != Doc {
		return "", false
	}
	_, item, _ := splitDoc(i.raw)
	return item, true
}

// DocBlock returns the optional block name of a Doc identifier. The second
// result is false if i is not a Doc identifier or carries no block.
func (i Ident) DocBlock() (string, bool) {
	if i.kind != Doc {
		return "", false
	}
	_, _, block := splitDoc(i.raw)
	return block, block != ""
}

// Compare orders a before, equal to, or after b lexicographically, and
// satisfies the invariant that Compare is consistent with Less.
func (i Ident) Compare(o Ident) int {
	return strings.Compare(i.raw, o.raw)
}

// Less reports whether i sorts before o.
func (i Ident) Less(o Ident) bool { return i.Compare(o) < 0 }

func splitDoc(raw string) (path, item, block string) {
	hash := strings.IndexByte(raw, '#')
	path = raw[:hash]
	rest := raw[hash+1:]
	if colon := strings.IndexByte(rest, ':'); colon >= 0 {
		return path, rest[:colon], rest[colon+1:]
	}
	return path, rest, ""
}

const templateLiteral = "@template"

// classify validates s against the grammar and reports its Kind.
//
//	template := "@template"
//	unit     := segment ("/" segment)*
//	doc      := unit "#" segment (":" segment)?
func classify(s string) (Kind, bool) {
	if s == templateLiteral {
		return Template, true
	}
	if s == "" {
		return 0, false
	}

	unitPath, rest, isDoc := strings.Cut(s, "#")
	if !validUnitPath(unitPath) {
		return 0, false
	}
	if !isDoc {
		return Unit, true
	}

	item, block, hasBlock := strings.Cut(rest, ":")
	if !validSegment(item) {
		return 0, false
	}
	if hasBlock && !validSegment(block) {
		return 0, false
	}
	return Doc, true
}

func validUnitPath(path string) bool {
	if path == "" {
		return false
	}
	for _, segment := range strings.Split(path, "/") {
		if !validSegment(segment) {
			return false
		}
	}
	return true
}

func validSegment(segment string) bool {
	if segment == "" {
		return false
	}
	for i, r := range segment {
		switch {
		case r == '_':
		case i == 0 && isLetter(r):
		case i > 0 && (isLetter(r) || isDigit(r) || r == '-'):
		default:
			return false
		}
	}
	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
