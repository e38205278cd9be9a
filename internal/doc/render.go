package doc

import (
	"image"
	"image/color"
	"image/draw"
)

// Origin names which corner two differently-sized pages are aligned
// to when composited into a difference image; the opposite corner is
// left as transparent background if the pages don't match in size.
type Origin uint8

const (
	TopLeft Origin = iota
	TopRight
	BottomLeft
	BottomRight
)

// RenderDiff composites primary over reference using a difference
// blend: reference is drawn opaquely first, then primary is drawn on
// top with each channel replaced by the absolute difference between
// the two. Pages of mismatched size are aligned to origin, leaving the
// opposite corner's excess canvas transparent.
func RenderDiff(primary, reference image.Image, origin Origin) *image.NRGBA {
	p := toNRGBA(primary)
	r := toNRGBA(reference)

	pw, ph := p.Rect.Dx(), p.Rect.Dy()
	rw, rh := r.Rect.Dx(), r.Rect.Dy()
	w := maxInt(pw, rw)
	h := maxInt(ph, rh)

	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	rOff := alignOffset(origin, w, h, rw, rh)
	draw.Draw(out, image.Rect(rOff.X, rOff.Y, rOff.X+rw, rOff.Y+rh), r, image.Point{}, draw.Src)

	pOff := alignOffset(origin, w, h, pw, ph)
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			pc := p.NRGBAAt(x, y)
			dstX, dstY := pOff.X+x, pOff.Y+y
			ec := out.NRGBAAt(dstX, dstY)
			out.SetNRGBA(dstX, dstY, color.NRGBA{
				R: absDiff(pc.R, ec.R),
				G: absDiff(pc.G, ec.G),
				B: absDiff(pc.B, ec.B),
				A: maxU8(pc.A, ec.A),
			})
		}
	}

	return out
}

func alignOffset(origin Origin, w, h, iw, ih int) image.Point {
	switch origin {
	case TopRight:
		return image.Point{X: w - iw, Y: 0}
	case BottomLeft:
		return image.Point{X: 0, Y: h - ih}
	case BottomRight:
		return image.Point{X: w - iw, Y: h - ih}
	default:
		return image.Point{}
	}
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func maxU8(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
