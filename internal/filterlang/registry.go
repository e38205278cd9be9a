package filterlang

import (
	"fmt"

	"github.com/typst-community/tytanic/internal/ident"
)

// BuiltinFunc implements a named filter. args are the unevaluated
// expression trees passed to the call; most built-ins ignore them, but
// name() and kind() inspect them directly rather than through Eval,
// since their arguments are patterns/identifiers, not sub-filters.
type BuiltinFunc func(t *ident.Test, args []Expr) (bool, error)

type builtinDef struct {
	minArgs int
	maxArgs int // -1 means unbounded
	fn      BuiltinFunc
}

var registry = map[string]*builtinDef{}

// Register adds or replaces a named built-in filter. Extension point
// mirroring elastic-package's per-flag filter registration, generalized
// to this language's (name, arity, fn) shape.
func Register(name string, minArgs, maxArgs int, fn BuiltinFunc) {
	registry[name] = &builtinDef{minArgs: minArgs, maxArgs: maxArgs, fn: fn}
}

func callBuiltin(name string, args []Expr, t *ident.Test) (bool, error) {
	def, ok := registry[name]
	if !ok {
		return false, fmt.Errorf("filterlang: unknown filter %q", name)
	}
	if len(args) < def.minArgs || (def.maxArgs >= 0 && len(args) > def.maxArgs) {
		return false, fmt.Errorf("filterlang: wrong number of arguments to %q", name)
	}
	return def.fn(t, args)
}

func init() {
	Register("all", 0, 0, func(t *ident.Test, args []Expr) (bool, error) { return true, nil })
	Register("none", 0, 0, func(t *ident.Test, args []Expr) (bool, error) { return false, nil })

	// skip/ignored are synonyms: both select tests annotated `skip`.
	Register("skip", 0, 0, func(t *ident.Test, args []Expr) (bool, error) { return t.HasSkip(), nil })
	Register("ignored", 0, 0, func(t *ident.Test, args []Expr) (bool, error) { return t.HasSkip(), nil })

	Register("template", 0, 0, func(t *ident.Test, args []Expr) (bool, error) { return t.Ident.IsTemplate(), nil })
	Register("unit", 0, 0, func(t *ident.Test, args []Expr) (bool, error) { return t.Ident.IsUnit(), nil })
	Register("doc", 0, 0, func(t *ident.Test, args []Expr) (bool, error) { return t.Ident.IsDoc(), nil })

	Register("ephemeral", 0, 0, unitKindIs(ident.Ephemeral))
	Register("persistent", 0, 0, unitKindIs(ident.Persistent))
	Register("compile-only", 0, 0, unitKindIs(ident.CompileOnly))

	Register("name", 1, 1, filterName)
	Register("kind", 1, -1, filterKind)
}

func unitKindIs(k ident.UnitKind) BuiltinFunc {
	return func(t *ident.Test, args []Expr) (bool, error) {
		return t.Ident.IsUnit() && t.Unit != nil && *t.Unit == k, nil
	}
}

func filterName(t *ident.Test, args []Expr) (bool, error) {
	a, ok := args[0].(AtomExpr)
	if !ok {
		return false, fmt.Errorf("filterlang: name() requires a pattern argument")
	}
	switch a.Atom.Kind {
	case AtomPat:
		return a.Atom.Pat.Match(t.Ident.String()), nil
	case AtomStr:
		return a.Atom.Str == t.Ident.String(), nil
	case AtomID:
		return a.Atom.ID == t.Ident.String(), nil
	default:
		return false, fmt.Errorf("filterlang: name() requires a pattern argument")
	}
}

func filterKind(t *ident.Test, args []Expr) (bool, error) {
	for _, arg := range args {
		a, ok := arg.(AtomExpr)
		if !ok || a.Atom.Kind != AtomID {
			return false, fmt.Errorf("filterlang: kind() arguments must be identifiers")
		}
		match, err := callBuiltin(a.Atom.ID, nil, t)
		if err != nil {
			return false, err
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}
