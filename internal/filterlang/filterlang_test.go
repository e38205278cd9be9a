package filterlang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typst-community/tytanic/internal/ident"
)

func mustUnit(t *testing.T, s string, kind ident.UnitKind) ident.Test {
	t.Helper()
	id, err := ident.Parse(s)
	require.NoError(t, err)
	return ident.NewUnitTest(id, kind)
}

func TestParseAtoms(t *testing.T) {
	expr, err := Parse("template")
	require.NoError(t, err)
	assert.True(t, expr.Eval(ptr(ident.NewTemplateTest())))

	expr, err = Parse("unit")
	require.NoError(t, err)
	u := mustUnit(t, "foo", ident.Persistent)
	assert.True(t, expr.Eval(&u))
}

func TestParsePatterns(t *testing.T) {
	expr, err := Parse("e:foo/bar")
	require.NoError(t, err)
	u := mustUnit(t, "foo/bar", ident.Ephemeral)
	assert.True(t, expr.Eval(&u))

	u2 := mustUnit(t, "foo/baz", ident.Ephemeral)
	assert.False(t, expr.Eval(&u2))

	expr, err = Parse(`glob:"foo/**"`)
	require.NoError(t, err)
	assert.True(t, expr.Eval(&u))
	assert.True(t, expr.Eval(&u2))

	expr, err = Parse("r:'^foo/ba.$'")
	require.NoError(t, err)
	assert.True(t, expr.Eval(&u))
}

func TestParseRawPatternBalancesParens(t *testing.T) {
	// The raw pattern "(foo(bar))" must not be cut short by the inner
	// closing paren; as a regex it matches the concatenation "foobar".
	expr, err := Parse("name(r:(foo(bar)))")
	require.NoError(t, err)
	u := mustUnit(t, "foobar", ident.Ephemeral)
	assert.True(t, expr.Eval(&u))
}

func TestInfixOperators(t *testing.T) {
	u := mustUnit(t, "foo", ident.Ephemeral)

	union, err := Parse("all | none")
	require.NoError(t, err)
	assert.True(t, union.Eval(&u))

	inter, err := Parse("all & none")
	require.NoError(t, err)
	assert.False(t, inter.Eval(&u))

	diff, err := Parse("all ~ none")
	require.NoError(t, err)
	assert.True(t, diff.Eval(&u))

	xor, err := Parse("all ^ all")
	require.NoError(t, err)
	assert.False(t, xor.Eval(&u))
}

func TestKeywordAliases(t *testing.T) {
	expr, err := Parse("all and not none")
	require.NoError(t, err)
	u := mustUnit(t, "foo", ident.Ephemeral)
	assert.True(t, expr.Eval(&u))
}

func TestPrecedence(t *testing.T) {
	// & binds tighter than |, matching the test-set crate's ordering.
	expr, err := Parse("none | all & all")
	require.NoError(t, err)
	u := mustUnit(t, "foo", ident.Ephemeral)
	assert.True(t, expr.Eval(&u))
}

func TestFuncName(t *testing.T) {
	expr, err := Parse("name(e:foo/bar)")
	require.NoError(t, err)
	u := mustUnit(t, "foo/bar", ident.Ephemeral)
	assert.True(t, expr.Eval(&u))
}

func TestFuncKind(t *testing.T) {
	expr, err := Parse("kind(unit, doc)")
	require.NoError(t, err)
	u := mustUnit(t, "foo", ident.Ephemeral)
	assert.True(t, expr.Eval(&u))

	tmpl := ident.NewTemplateTest()
	assert.False(t, expr.Eval(&tmpl))
}

func TestSkipIgnoredSynonyms(t *testing.T) {
	expr, err := Parse("skip")
	require.NoError(t, err)
	expr2, err := Parse("ignored")
	require.NoError(t, err)

	annotated := ident.NewUnitTest(ident.MustParse("foo"), ident.Ephemeral, ident.Annotation{Kind: ident.AnnotationSkip})
	assert.True(t, expr.Eval(&annotated))
	assert.True(t, expr2.Eval(&annotated))
}

func TestParseUnicodeStringEscape(t *testing.T) {
	expr, err := Parse(`name(e:'\u{66}\u{6f}\u{6f}')`)
	require.NoError(t, err)
	u := mustUnit(t, "foo", ident.Ephemeral)
	assert.True(t, expr.Eval(&u))
}

func TestParseSingleQuoteLiteralBackslash(t *testing.T) {
	expr, err := Parse(`'a string \'`)
	require.NoError(t, err)
	ae, ok := expr.(AtomExpr)
	require.True(t, ok)
	assert.Equal(t, AtomStr, ae.Atom.Kind)
	assert.Equal(t, `a string \`, ae.Atom.Str)
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"(all",
		"all)",
		"name(",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			assert.Error(t, err)
		})
	}
}

func TestUnknownBuiltinEvaluatesFalse(t *testing.T) {
	// Filter evaluation is total: an unregistered name or a wrong arity
	// is not a parse error, it simply never matches.
	expr, err := Parse("unknown-builtin()")
	require.NoError(t, err)
	u := mustUnit(t, "foo", ident.Ephemeral)
	assert.False(t, expr.Eval(&u))

	expr, err = Parse("kind()")
	require.NoError(t, err)
	assert.False(t, expr.Eval(&u))
}

func TestParseErrorsAreTyped(t *testing.T) {
	_, err := Parse("")
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ErrUnexpectedEOI, fe.Kind)

	_, err = Parse("all)")
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ErrExpectedEOI, fe.Kind)

	_, err = Parse("r:'('")
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ErrRegex, fe.Kind)

	_, err = Parse(`glob:"[z-a]"`)
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ErrGlob, fe.Kind)
}

func TestSerializeRoundTrip(t *testing.T) {
	inputs := []string{
		"all",
		"!skip",
		"none | all & all",
		"all ~ none ^ all",
		"not (all and none)",
		"name(e:foo/bar)",
		`glob:"foo/**"`,
		"r:'^foo/ba.$'",
		"kind(unit, doc)",
		"(all | none) & !template",
		`name("it's")`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			parsed, err := Parse(in)
			require.NoError(t, err)

			serialized := exprString(parsed)
			reparsed, err := Parse(serialized)
			require.NoError(t, err)

			// Serialization is a fixed point: the reparsed tree
			// serializes to the identical string.
			assert.Equal(t, serialized, exprString(reparsed))

			// And it means the same thing.
			u := mustUnit(t, "foo/bar", ident.Ephemeral)
			assert.Equal(t, parsed.Eval(&u), reparsed.Eval(&u))
		})
	}
}

func TestEvalIsDeterministic(t *testing.T) {
	expr, err := Parse("unit & !skip & g:foo/*")
	require.NoError(t, err)
	u := mustUnit(t, "foo/bar", ident.Persistent)
	first := expr.Eval(&u)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, expr.Eval(&u))
	}
}

func ptr(t ident.Test) *ident.Test { return &t }
