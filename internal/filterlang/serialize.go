package filterlang

import (
	"fmt"
	"strconv"
	"strings"
)

// Serialization renders an expression back into the filter language.
// The output is fully parenthesized, so re-parsing it always rebuilds
// the same tree regardless of operator precedence; parse → serialize →
// parse is the identity.

func (e AtomExpr) String() string {
	switch e.Atom.Kind {
	case AtomNum:
		return strconv.FormatInt(e.Atom.Num, 10)
	case AtomID:
		return e.Atom.ID
	case AtomStr:
		return quoteString(e.Atom.Str)
	case AtomPat:
		return e.Atom.Pat.String()
	default:
		return ""
	}
}

func (p Pattern) String() string {
	var prefix string
	switch p.Kind {
	case PatGlob:
		prefix = "glob"
	case PatRegex:
		prefix = "regex"
	default:
		prefix = "exact"
	}
	return prefix + ":" + quoteString(p.Raw)
}

func (e PrefixExpr) String() string {
	return "!(" + exprString(e.X) + ")"
}

func (e InfixExpr) String() string {
	var op string
	switch e.Op {
	case OpUnion:
		op = "|"
	case OpInter:
		op = "&"
	case OpDiff:
		op = "~"
	default:
		op = "^"
	}
	return "(" + exprString(e.L) + " " + op + " " + exprString(e.R) + ")"
}

func (e FuncExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = exprString(a)
	}
	return e.Name + "(" + strings.Join(args, ", ") + ")"
}

func exprString(e Expr) string {
	if s, ok := e.(fmt.Stringer); ok {
		return s.String()
	}
	return ""
}

// quoteString renders s as a quoted string literal the lexer reads
// back verbatim. A quote character matching the chosen delimiter is
// emitted as a unicode escape, since the language has no in-string
// quote escape.
func quoteString(s string) string {
	quote := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var sb strings.Builder
	sb.WriteRune(quote)
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case quote:
			fmt.Fprintf(&sb, `\u{%x}`, r)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteRune(quote)
	return sb.String()
}
