package compiler_test

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typst-community/tytanic/internal/compiler"
	"github.com/typst-community/tytanic/internal/provide"
)

func newWorld(t *testing.T, sources map[string]string) *provide.Environment {
	t.Helper()

	files := provide.NewVirtualFileProvider()
	for path, text := range sources {
		files.SetSource(provide.NewFileID(path), text)
	}

	return &provide.Environment{
		Files:     files,
		Fonts:     provide.NewEmbeddedFontProvider([]provide.Font{{Name: "Libertinus Serif"}}),
		Libraries: provide.NewDefaultLibraryProvider(&provide.Library{Bindings: map[string]string{"test-id": "t"}}),
		Datetimes: provide.NewFixedDatetimeProvider(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
		MainID:    provide.NewFileID("/main.typ"),
	}
}

func TestFakeCompilePages(t *testing.T) {
	world := newWorld(t, map[string]string{
		"/main.typ": "// fixture\npage 100x200 #ff0000\npage 50x50\n",
	})

	res, err := (&compiler.Fake{}).Compile(context.Background(), world)
	require.NoError(t, err)
	require.True(t, res.Passed())
	require.NotNil(t, res.Document)
	assert.Equal(t, 2, res.Document.PageCount())
	assert.Empty(t, res.Warnings)
}

func TestFakeCompileDiagnostics(t *testing.T) {
	world := newWorld(t, map[string]string{
		"/main.typ": "warn deprecated thing\nerror it broke\npage 10x10\n",
	})

	res, err := (&compiler.Fake{}).Compile(context.Background(), world)
	require.NoError(t, err)
	assert.False(t, res.Passed())
	assert.Nil(t, res.Document)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "it broke", res.Errors[0].Message)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "deprecated thing", res.Warnings[0].Message)
}

func TestFakeCompileInclude(t *testing.T) {
	world := newWorld(t, map[string]string{
		"/main.typ": "include /lib.typ\npage 10x10\n",
		"/lib.typ":  "page 20x20\n",
	})

	res, err := (&compiler.Fake{}).Compile(context.Background(), world)
	require.NoError(t, err)
	require.True(t, res.Passed())
	assert.Equal(t, 2, res.Document.PageCount())
}

func TestFakeCompileIncludeCycle(t *testing.T) {
	world := newWorld(t, map[string]string{
		"/main.typ": "include /main.typ\n",
	})

	res, err := (&compiler.Fake{}).Compile(context.Background(), world)
	require.NoError(t, err)
	assert.False(t, res.Passed())
}

func TestFakeCompileMissingFile(t *testing.T) {
	world := newWorld(t, nil)

	res, err := (&compiler.Fake{}).Compile(context.Background(), world)
	require.NoError(t, err)
	assert.False(t, res.Passed())
}

func TestFakeProviderDirectives(t *testing.T) {
	world := newWorld(t, map[string]string{
		"/main.typ": "font Libertinus Serif\nbinding test-id\ntoday\npage 10x10\n",
	})

	res, err := (&compiler.Fake{}).Compile(context.Background(), world)
	require.NoError(t, err)
	require.True(t, res.Passed())
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "today is 2024-03-01", res.Warnings[0].Message)
}

func TestFakeRender(t *testing.T) {
	world := newWorld(t, map[string]string{
		"/main.typ": "page 100x50 #102030\n",
	})

	fake := &compiler.Fake{}
	res, err := fake.Compile(context.Background(), world)
	require.NoError(t, err)
	require.True(t, res.Passed())

	pages, err := fake.Render(res.Document, 2.0)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, image.Rect(0, 0, 200, 100), pages[0].Bounds())

	r, g, b, _ := pages[0].At(10, 10).RGBA()
	assert.Equal(t, uint32(0x10), r>>8)
	assert.Equal(t, uint32(0x20), g>>8)
	assert.Equal(t, uint32(0x30), b>>8)
}
