package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		kind    Kind
	}{
		{"template", "@template", false, Template},
		{"unit simple", "foo", false, Unit},
		{"unit nested", "foo/bar_baz/qux-1", false, Unit},
		{"doc", "foo/bar#example", false, Doc},
		{"doc with block", "foo/bar#example:block-1", false, Doc},
		{"empty", "", true, 0},
		{"unit leading digit segment", "1foo", true, 0},
		{"unit trailing slash", "foo/", true, 0},
		{"unit empty segment", "foo//bar", true, 0},
		{"doc missing item", "foo#", true, 0},
		{"doc missing block after colon", "foo#bar:", true, 0},
		{"template with suffix", "@template/x", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, id.Kind())
			assert.Equal(t, tt.input, id.String())
		})
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{"@template", "foo", "foo/bar", "foo/bar#ex", "foo/bar#ex:blk"}
	for _, in := range inputs {
		id, err := Parse(in)
		require.NoError(t, err)
		assert.Equal(t, in, id.String())

		reparsed, err := Parse(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, reparsed)
	}
}

func TestDocAccessors(t *testing.T) {
	id := MustParse("foo/bar#example:block")
	path, ok := id.UnitPath()
	require.True(t, ok)
	assert.Equal(t, "foo/bar", path)

	item, ok := id.DocItem()
	require.True(t, ok)
	assert.Equal(t, "example", item)

	block, ok := id.DocBlock()
	require.True(t, ok)
	assert.Equal(t, "block", block)
}

func TestDocAccessorsWithoutBlock(t *testing.T) {
	id := MustParse("foo/bar#example")
	_, ok := id.DocBlock()
	assert.False(t, ok)
}

func TestOrdering(t *testing.T) {
	a := MustParse("a")
	b := MustParse("b")
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.Equal(t, 0, a.Compare(a))
}
