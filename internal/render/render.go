// Package render paints terminal cells into framebuffer pixels: a
// background fill followed by an alpha-blended glyph, with no damage
// tracking of its own — the event loop re-renders every cell when the
// grid's dirty flag is set.
package render

import "github.com/h8d13/zucc-fb/internal/glyph"

// Surface is the pixel-plotting capability the renderer needs from the
// framebuffer (component A).
type Surface interface {
	PutPixel(x, y int, rgb uint32)
}

// Glypher resolves a codepoint to a rasterised glyph (component B).
type Glypher interface {
	Glyph(r rune) (glyph.Bitmap, bool)
}

// Cell is the minimal per-cell data the renderer needs; callers copy the
// codepoint and colors out of a term.Cell into it.
type Cell struct {
	Codepoint rune
	Fg, Bg    uint32
}

// CellRenderer paints cells at fixed-size grid positions using a glyph
// source and baseline derived once from font metrics at start-up.
type CellRenderer struct {
	surf                  Surface
	glyphs                Glypher
	charWidth, charHeight int
	baseline              int
}

// New creates a renderer for the given font metrics.
func New(surf Surface, glyphs Glypher, charWidth, charHeight, baseline int) *CellRenderer {
	return &CellRenderer{surf: surf, glyphs: glyphs, charWidth: charWidth, charHeight: charHeight, baseline: baseline}
}

// Paint renders one cell at grid position (gx, gy): a background fill
// followed, for non-blank codepoints, by the alpha-blended glyph.
func (r *CellRenderer) Paint(gx, gy int, c Cell) {
	originX, originY := gx*r.charWidth, gy*r.charHeight

	for y := 0; y < r.charHeight; y++ {
		for x := 0; x < r.charWidth; x++ {
			r.surf.PutPixel(originX+x, originY+y, c.Bg)
		}
	}

	if c.Codepoint == 0 || c.Codepoint == ' ' {
		return
	}

	bm, ok := r.glyphs.Glyph(c.Codepoint)
	if !ok {
		return
	}

	glyphOriginX := originX + bm.X1
	glyphOriginY := originY + r.baseline + bm.Y1

	for row := 0; row < bm.Height; row++ {
		for col := 0; col < bm.Width; col++ {
			alpha := bm.Pix[row*bm.Width+col]
			if alpha == 0 {
				continue
			}
			px, py := glyphOriginX+col, glyphOriginY+row
			if alpha == 255 {
				r.surf.PutPixel(px, py, c.Fg)
				continue
			}
			r.surf.PutPixel(px, py, lerpRGB(c.Fg, c.Bg, alpha))
		}
	}
}

// lerpRGB blends fg toward bg by alpha/255 per channel, alpha==0 meaning
// pure bg and alpha==255 meaning pure fg (the caller special-cases both
// ends; this handles the interior).
func lerpRGB(fg, bg uint32, alpha byte) uint32 {
	a := uint32(alpha)
	blend := func(shift uint) uint32 {
		f := (fg >> shift) & 0xFF
		b := (bg >> shift) & 0xFF
		return ((f*a + b*(255-a)) / 255) << shift
	}
	return blend(16) | blend(8) | blend(0)
}
