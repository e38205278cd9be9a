package doc

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	d := New([]image.Image{
		solidImage(2, 2, color.NRGBA{R: 255, A: 255}),
		solidImage(2, 2, color.NRGBA{G: 255, A: 255}),
	})

	require.NoError(t, d.Save(dir, nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.FileExists(t, filepath.Join(dir, "1.png"))
	assert.FileExists(t, filepath.Join(dir, "2.png"))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, loaded.Pages, 2)
}

func TestLoadRejectsGap(t *testing.T) {
	dir := t.TempDir()
	d := New([]image.Image{solidImage(1, 1, color.NRGBA{A: 255})})
	require.NoError(t, d.Save(dir, nil))

	// Rename 1.png to 2.png, leaving a gap at 1.
	require.NoError(t, os.Rename(filepath.Join(dir, "1.png"), filepath.Join(dir, "2.png")))

	_, err := Load(dir)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, []int{2}, le.MissingPages)
}

func TestLoadIgnoresNonPNGAndZero(t *testing.T) {
	dir := t.TempDir()
	d := New([]image.Image{solidImage(1, 1, color.NRGBA{A: 255})})
	require.NoError(t, d.Save(dir, nil))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0.png"), []byte("bad"), 0o644))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, loaded.Pages, 1)
}

func TestLoadEmptyDirIsMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir)
	var le *LoadError
	require.ErrorAs(t, err, &le)
}

func TestRenderDiffAlignsAtOrigin(t *testing.T) {
	primary := solidImage(2, 2, color.NRGBA{R: 100, A: 255})
	reference := solidImage(3, 3, color.NRGBA{R: 40, A: 255})

	out := RenderDiff(primary, reference, TopLeft)
	assert.Equal(t, 3, out.Rect.Dx())
	assert.Equal(t, 3, out.Rect.Dy())

	// Overlap region: |100-40| = 60.
	overlap := out.NRGBAAt(0, 0)
	assert.Equal(t, uint8(60), overlap.R)

	// Column/row 2 only has reference, no primary overlap: left opaque.
	refOnly := out.NRGBAAt(2, 2)
	assert.Equal(t, uint8(40), refOnly.R)
	assert.Equal(t, uint8(255), refOnly.A)
}

func TestRenderDiffBottomRightAlignment(t *testing.T) {
	primary := solidImage(1, 1, color.NRGBA{R: 200, A: 255})
	reference := solidImage(2, 2, color.NRGBA{R: 0, A: 255})

	out := RenderDiff(primary, reference, BottomRight)

	// Primary aligned to bottom-right corner overlaps (1,1).
	overlap := out.NRGBAAt(1, 1)
	assert.Equal(t, uint8(200), overlap.R)

	// Top-left corner (0,0) only has reference.
	refOnly := out.NRGBAAt(0, 0)
	assert.Equal(t, uint8(0), refOnly.R)
	assert.Equal(t, uint8(255), refOnly.A)
}
