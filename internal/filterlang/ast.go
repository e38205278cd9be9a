package filterlang

import "github.com/typst-community/tytanic/internal/ident"

// AtomKind discriminates the four leaf values the grammar produces.
type AtomKind uint8

const (
	AtomNum AtomKind = iota
	AtomID
	AtomStr
	AtomPat
)

// Atom is a leaf value: a number, identifier, string, or compiled
// pattern. num/str are only meaningful as function arguments; id and
// pat evaluate directly against a test.
type Atom struct {
	Kind AtomKind
	Num  int64
	ID   string
	Str  string
	Pat  Pattern
}

// Expr is a parsed filter expression. Eval is total: every well-formed
// Expr evaluates to a definite boolean for any test.
type Expr interface {
	Eval(t *ident.Test) bool
}

// AtomExpr wraps a bare leaf value used directly as an expression.
type AtomExpr struct {
	Atom Atom
}

func (e AtomExpr) Eval(t *ident.Test) bool {
	switch e.Atom.Kind {
	case AtomPat:
		return e.Atom.Pat.Match(t.Ident.String())
	case AtomID:
		v, err := callBuiltin(e.Atom.ID, nil, t)
		if err != nil {
			return false
		}
		return v
	default:
		// num/str standing alone carry no boolean meaning.
		return false
	}
}

// PrefixOp is a unary operator.
type PrefixOp uint8

const (
	OpNot PrefixOp = iota
)

type PrefixExpr struct {
	Op PrefixOp
	X  Expr
}

func (e PrefixExpr) Eval(t *ident.Test) bool {
	return !e.X.Eval(t)
}

// InfixOp is a left-associative binary set operator.
type InfixOp uint8

const (
	OpUnion InfixOp = iota // |, or
	OpInter                // &, and
	OpDiff                 // ~, diff (left AND NOT right)
	OpXor                  // ^, xor
)

type InfixExpr struct {
	Op   InfixOp
	L, R Expr
}

func (e InfixExpr) Eval(t *ident.Test) bool {
	l := e.L.Eval(t)
	switch e.Op {
	case OpUnion:
		return l || e.R.Eval(t)
	case OpInter:
		return l && e.R.Eval(t)
	case OpDiff:
		return l && !e.R.Eval(t)
	case OpXor:
		return l != e.R.Eval(t)
	default:
		return false
	}
}

// FuncExpr is a named built-in filter call.
type FuncExpr struct {
	Name string
	Args []Expr
}

func (e FuncExpr) Eval(t *ident.Test) bool {
	v, err := callBuiltin(e.Name, e.Args, t)
	if err != nil {
		return false
	}
	return v
}
