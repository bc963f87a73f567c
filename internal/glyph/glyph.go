// Package glyph rasterises codepoints into 8-bit coverage bitmaps using a
// fallback chain of TrueType/OpenType fonts, built on golang.org/x/image's
// sfnt parser and vector rasteriser — the same family of packages the
// reference terminal library already reaches for in its screenshot
// renderer, used here one layer lower so coverage bytes and bounding boxes
// are directly addressable by the cell renderer.
package glyph

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Font wraps a parsed sfnt.Font at a fixed pixel size, with its own scratch
// buffer so concurrent-free single-threaded reuse never reallocates.
type Font struct {
	Name string
	sf   *sfnt.Font
	buf  sfnt.Buffer
	ppem fixed.Int26_6
}

// Load parses raw TrueType/OpenType bytes into a Font rendered at sizePx
// pixels (72 DPI, full hinting).
func Load(name string, data []byte, sizePx float64) (*Font, error) {
	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("glyph: parse %s: %w", name, err)
	}
	return &Font{Name: name, sf: sf, ppem: fixed.Int26_6(sizePx * 64)}, nil
}

// glyphIndex returns the font's glyph index for r, or 0 (notdef) if the
// font has no such lookup or an error occurs probing it.
func (f *Font) glyphIndex(r rune) sfnt.GlyphIndex {
	gi, err := f.sf.GlyphIndex(&f.buf, r)
	if err != nil {
		return 0
	}
	return gi
}

// advance returns the glyph's horizontal advance at this font's size.
func (f *Font) advance(gi sfnt.GlyphIndex) fixed.Int26_6 {
	adv, err := f.sf.GlyphAdvance(&f.buf, gi, f.ppem, font.HintingFull)
	if err != nil {
		return 0
	}
	return adv
}

// Metrics are the cell-dimension-driving measurements computed once at
// start-up from the primary font, per component 4.B.
type Metrics struct {
	Ascent     int
	Descent    int
	Baseline   int
	CharWidth  int
	CharHeight int
}

// ComputeMetrics derives cell pixel dimensions from the primary font's
// vertical metrics and its widest advance among the printable ASCII range
// U+0020..U+007E. x/image's font.Metrics reports Descent as a positive
// distance below the baseline (unlike stb_truetype's signed convention),
// so the cell height here is Ascent+Descent rather than Ascent-Descent.
func ComputeMetrics(primary *Font) Metrics {
	fm, _ := primary.sf.Metrics(&primary.buf, primary.ppem, font.HintingFull)
	ascent := fm.Ascent.Ceil()
	descent := fm.Descent.Ceil()

	maxAdvance := fixed.Int26_6(0)
	for r := rune(0x20); r <= 0x7E; r++ {
		gi := primary.glyphIndex(r)
		if gi == 0 {
			continue
		}
		if a := primary.advance(gi); a > maxAdvance {
			maxAdvance = a
		}
	}

	return Metrics{
		Ascent:     ascent,
		Descent:    descent,
		Baseline:   ascent,
		CharWidth:  maxAdvance.Ceil() + 1,
		CharHeight: ascent + descent + 2,
	}
}

// Bitmap is a rasterised glyph: an 8-bit coverage mask (row-major, Width *
// Height bytes) plus the bounding box it occupies relative to the glyph
// origin.
type Bitmap struct {
	Pix            []byte
	Width, Height  int
	X1, Y1, X2, Y2 int
}

// Find scans fonts in order and returns the first one reporting a glyph for
// r, and that glyph's index. If none match, fonts[0] is returned together
// with whatever index it resolves r to (typically notdef), exactly as the
// fallback policy in 4.B specifies. Find panics if fonts is empty; callers
// must always configure at least a primary font.
func Find(fonts []*Font, r rune) (*Font, sfnt.GlyphIndex) {
	for _, f := range fonts {
		if gi := f.glyphIndex(r); gi != 0 {
			return f, gi
		}
	}
	return fonts[0], fonts[0].glyphIndex(r)
}

// FontSet bundles the fallback chain with the metrics computed from its
// primary (first) font, exposing the single Glyph entry point the cell
// renderer needs.
type FontSet struct {
	Fonts   []*Font
	Metrics Metrics
}

// NewFontSet computes metrics from fonts[0] and keeps the whole chain for
// fallback lookups. Panics if fonts is empty.
func NewFontSet(fonts []*Font) *FontSet {
	return &FontSet{Fonts: fonts, Metrics: ComputeMetrics(fonts[0])}
}

// Glyph resolves r through the fallback chain and rasterises it. The bool
// result is false when the resolved glyph fails to load or has an empty
// outline (e.g. space), matching the cell renderer's "codepoint is 0 or space, stop"
// short-circuit.
func (s *FontSet) Glyph(r rune) (Bitmap, bool) {
	f, gi := Find(s.Fonts, r)
	bm, err := Rasterize(f, gi)
	if err != nil || len(bm.Pix) == 0 {
		return Bitmap{}, false
	}
	return bm, true
}

// Rasterize produces the coverage bitmap and bounding box for gi in font f.
// The bounding box is derived from the glyph outline's own extent, scaled
// to f's pixel size, matching stb_truetype's get_bitmap_box/rasterise_bitmap
// pairing referenced by the component design.
func Rasterize(f *Font, gi sfnt.GlyphIndex) (Bitmap, error) {
	segs, err := f.sf.LoadGlyph(&f.buf, gi, f.ppem, nil)
	if err != nil {
		return Bitmap{}, fmt.Errorf("glyph: load glyph: %w", err)
	}
	if len(segs) == 0 {
		return Bitmap{}, nil
	}

	minX, minY := fixed.Int26_6(1<<30), fixed.Int26_6(1<<30)
	maxX, maxY := fixed.Int26_6(-(1 << 30)), fixed.Int26_6(-(1 << 30))
	trackPoint := func(p fixed.Point26_6) {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo, sfnt.SegmentOpLineTo:
			trackPoint(seg.Args[0])
		case sfnt.SegmentOpQuadTo:
			trackPoint(seg.Args[0])
			trackPoint(seg.Args[1])
		case sfnt.SegmentOpCubeTo:
			trackPoint(seg.Args[0])
			trackPoint(seg.Args[1])
			trackPoint(seg.Args[2])
		}
	}

	x1, y1 := minX.Floor(), minY.Floor()
	x2, y2 := maxX.Ceil(), maxY.Ceil()
	w, h := x2-x1, y2-y1
	if w <= 0 || h <= 0 {
		return Bitmap{}, nil
	}

	z := vector.NewRasterizer(w, h)
	ox, oy := float32(x1), float32(y1)
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			z.MoveTo(toFloat32(seg.Args[0].X)-ox, toFloat32(seg.Args[0].Y)-oy)
		case sfnt.SegmentOpLineTo:
			z.LineTo(toFloat32(seg.Args[0].X)-ox, toFloat32(seg.Args[0].Y)-oy)
		case sfnt.SegmentOpQuadTo:
			z.QuadTo(
				toFloat32(seg.Args[0].X)-ox, toFloat32(seg.Args[0].Y)-oy,
				toFloat32(seg.Args[1].X)-ox, toFloat32(seg.Args[1].Y)-oy,
			)
		case sfnt.SegmentOpCubeTo:
			z.CubeTo(
				toFloat32(seg.Args[0].X)-ox, toFloat32(seg.Args[0].Y)-oy,
				toFloat32(seg.Args[1].X)-ox, toFloat32(seg.Args[1].Y)-oy,
				toFloat32(seg.Args[2].X)-ox, toFloat32(seg.Args[2].Y)-oy,
			)
		}
	}

	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	src := image.NewUniform(color.Alpha{A: 255})
	z.Draw(dst, dst.Bounds(), src, image.Point{})

	return Bitmap{Pix: dst.Pix, Width: w, Height: h, X1: x1, Y1: y1, X2: x2, Y2: y2}, nil
}

func toFloat32(v fixed.Int26_6) float32 { return float32(v) / 64 }
