package suite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typst-community/tytanic/internal/ident"
)

func mustUnit(t *testing.T, s string) ident.Test {
	t.Helper()
	id, err := ident.Parse(s)
	require.NoError(t, err)
	return ident.NewUnitTest(id, ident.CompileOnly)
}

func TestInvariants(t *testing.T) {
	s := New()
	s.Insert(mustUnit(t, "b"), true)
	s.Insert(mustUnit(t, "a"), false)
	s.Insert(mustUnit(t, "c"), true)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.MatchedLen())
	assert.Equal(t, s.MatchedLen()+s.FilteredLen(), s.Len())

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Ident.String())
	assert.Equal(t, "b", all[1].Ident.String())
	assert.Equal(t, "c", all[2].Ident.String())
}

func TestInsertReplaces(t *testing.T) {
	s := New()
	s.Insert(mustUnit(t, "a"), true)
	assert.Equal(t, 1, s.MatchedLen())

	s.Insert(mustUnit(t, "a"), false)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, s.MatchedLen())
}

func TestByKind(t *testing.T) {
	s := New()
	s.Insert(ident.NewTemplateTest(), true)
	s.Insert(mustUnit(t, "a"), true)
	assert.Len(t, s.ByKind(ident.Template), 1)
	assert.Len(t, s.ByKind(ident.Unit), 1)
}
