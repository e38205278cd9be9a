package compiler

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/typst-community/tytanic/internal/provide"
)

// Fake is a deterministic stand-in engine used wherever the real
// typesetting library would be linked in: unit tests, the runner's own
// test suite, and fixture-driven CLI scripts. It compiles a line-based
// page description language:
//
//	page 100x200 #ff0000    emit a 100x200pt page filled with a color
//	warn message            emit a warning
//	error message           emit a compile error
//	include /other.typ      splice in another source file
//	include ns/name@1.0.0 /lib.typ
//	                        splice in a file from a package import
//	font name               error unless the font book lists name
//	binding name            error unless the library binds name
//	today                   emit a warning carrying the provided date
//
// Blank lines and lines starting with "//" are skipped. Every provider
// capability of the composed environment is exercised by at least one
// directive, so a fixture project can drive the full pipeline without a
// real engine.
type Fake struct{}

// maxIncludeDepth bounds include recursion so cyclic fixtures fail with
// a diagnostic instead of hanging.
const maxIncludeDepth = 16

type fakePage struct {
	width  float64
	height float64
	fill   color.NRGBA
}

type fakeDocument struct {
	pages []fakePage
}

func (d *fakeDocument) PageCount() int { return len(d.pages) }

func (f *Fake) Compile(ctx context.Context, world provide.World) (*Result, error) {
	res := &Result{}
	doc := &fakeDocument{}

	f.compileFile(world, world.Main(), doc, res, 0)

	if len(res.Errors) > 0 {
		res.Document = nil
		return res, nil
	}
	res.Document = doc
	return res, nil
}

func (f *Fake) compileFile(world provide.World, id provide.FileID, doc *fakeDocument, res *Result, depth int) {
	if depth > maxIncludeDepth {
		res.Errors = append(res.Errors, Diagnostic{Message: fmt.Sprintf("include depth exceeded at %s", id)})
		return
	}

	source, err := world.ProvideSource(id)
	if err != nil {
		res.Errors = append(res.Errors, Diagnostic{Message: err.Error()})
		return
	}

	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		directive, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch directive {
		case "page":
			page, err := parsePage(rest)
			if err != nil {
				res.Errors = append(res.Errors, Diagnostic{Message: err.Error()})
				continue
			}
			doc.pages = append(doc.pages, page)
		case "warn":
			res.Warnings = append(res.Warnings, Diagnostic{Message: rest})
		case "error":
			res.Errors = append(res.Errors, Diagnostic{Message: rest})
		case "include":
			target, err := parseInclude(rest)
			if err != nil {
				res.Errors = append(res.Errors, Diagnostic{Message: err.Error()})
				continue
			}
			f.compileFile(world, target, doc, res, depth+1)
		case "font":
			if _, ok := world.FontBook().Select(rest); !ok {
				res.Errors = append(res.Errors, Diagnostic{Message: fmt.Sprintf("unknown font family: %s", rest)})
			}
		case "binding":
			if _, ok := world.ProvideLibrary().Bindings[rest]; !ok {
				res.Errors = append(res.Errors, Diagnostic{Message: fmt.Sprintf("unknown binding: %s", rest)})
			}
		case "today":
			today, ok := world.ProvideToday(nil)
			if !ok {
				res.Errors = append(res.Errors, Diagnostic{Message: "datetime unavailable"})
				continue
			}
			res.Warnings = append(res.Warnings, Diagnostic{Message: "today is " + today.Format("2006-01-02")})
		default:
			res.Errors = append(res.Errors, Diagnostic{Message: fmt.Sprintf("unknown directive: %s", directive)})
		}
	}
}

// parsePage parses "WxH #RRGGBB"; the fill is optional and defaults to
// white.
func parsePage(s string) (fakePage, error) {
	dims, fill, hasFill := strings.Cut(s, " ")

	wStr, hStr, ok := strings.Cut(dims, "x")
	if !ok {
		return fakePage{}, fmt.Errorf("invalid page size %q", dims)
	}
	w, err := strconv.ParseFloat(wStr, 64)
	if err != nil {
		return fakePage{}, fmt.Errorf("invalid page width %q", wStr)
	}
	h, err := strconv.ParseFloat(hStr, 64)
	if err != nil {
		return fakePage{}, fmt.Errorf("invalid page height %q", hStr)
	}
	if w <= 0 || h <= 0 {
		return fakePage{}, fmt.Errorf("page size must be positive, got %gx%g", w, h)
	}

	page := fakePage{width: w, height: h, fill: color.NRGBA{R: 255, G: 255, B: 255, A: 255}}
	if hasFill {
		c, err := parseHexColor(strings.TrimSpace(fill))
		if err != nil {
			return fakePage{}, err
		}
		page.fill = c
	}
	return page, nil
}

func parseHexColor(s string) (color.NRGBA, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid fill %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid fill %q", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// parseInclude parses "/path" or "namespace/name@1.2.3 /path".
func parseInclude(s string) (provide.FileID, error) {
	if strings.HasPrefix(s, "/") {
		return provide.NewFileID(s), nil
	}

	spec, path, ok := strings.Cut(s, " ")
	if !ok {
		return provide.FileID{}, fmt.Errorf("invalid include %q", s)
	}
	parsed, err := provide.ParsePackageSpec(spec)
	if err != nil {
		return provide.FileID{}, err
	}
	return provide.NewPackageFileID(parsed, strings.TrimSpace(path)), nil
}

// Render rasterizes each page as a uniformly filled pixmap, rounding
// pt dimensions to pixels at the given scale. Pages never collapse
// below one pixel per axis.
func (f *Fake) Render(d Document, pixelPerPt float64) ([]image.Image, error) {
	fake, ok := d.(*fakeDocument)
	if !ok {
		return nil, fmt.Errorf("compiler: document was not produced by the fake engine")
	}

	pages := make([]image.Image, len(fake.pages))
	for i, p := range fake.pages {
		w := max(1, int(math.Round(p.width*pixelPerPt)))
		h := max(1, int(math.Round(p.height*pixelPerPt)))

		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetNRGBA(x, y, p.fill)
			}
		}
		pages[i] = img
	}
	return pages, nil
}
