package filterlang

import (
	"regexp"

	"github.com/gobwas/glob"
)

// PatternKind selects how a Pattern compares a test identifier string.
type PatternKind uint8

const (
	PatExact PatternKind = iota
	PatGlob
	PatRegex
)

// Pattern is a compiled `exact:`/`glob:`/`regex:` atom. It is compiled
// eagerly at parse time so that a malformed glob or regex surfaces as a
// parse error rather than failing later during evaluation.
type Pattern struct {
	Kind PatternKind
	Raw  string

	g  glob.Glob
	re *regexp.Regexp
}

func compilePattern(kind PatternKind, raw string) (Pattern, error) {
	switch kind {
	case PatGlob:
		g, err := glob.Compile(raw, '/')
		if err != nil {
			return Pattern{}, &Error{Kind: ErrGlob, Err: err}
		}
		return Pattern{Kind: kind, Raw: raw, g: g}, nil
	case PatRegex:
		re, err := regexp.Compile(raw)
		if err != nil {
			return Pattern{}, &Error{Kind: ErrRegex, Err: err}
		}
		return Pattern{Kind: kind, Raw: raw, re: re}, nil
	default:
		return Pattern{Kind: PatExact, Raw: raw}, nil
	}
}

func patternKindFor(prefix string) PatternKind {
	switch prefix {
	case "g", "glob":
		return PatGlob
	case "r", "regex":
		return PatRegex
	default:
		return PatExact
	}
}

func isPatternPrefix(s string) bool {
	switch s {
	case "e", "exact", "g", "glob", "r", "regex":
		return true
	}
	return false
}

// Match reports whether s satisfies the pattern.
func (p Pattern) Match(s string) bool {
	switch p.Kind {
	case PatGlob:
		return p.g.Match(s)
	case PatRegex:
		return p.re.MatchString(s)
	default:
		return p.Raw == s
	}
}
