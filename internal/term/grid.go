package term

import "io"

// Dimension bounds from the data model: the grid is statically sized at
// start-up and never resized at runtime.
const (
	MinCols = 40
	MaxCols = 500
	MinRows = 10
	MaxRows = 200
)

// ClampDims fits a raw pixel-derived column/row count into the supported
// range, the same clamp cmd/fbterm applies after dividing framebuffer
// dimensions by cell pixel dimensions.
func ClampDims(cols, rows int) (int, int) {
	return clampInt(cols, MinCols, MaxCols), clampInt(rows, MinRows, MaxRows)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Grid is the terminal's cell matrix plus cursor, current SGR state, and
// scroll region. It is created once at start-up and lives for the process.
type Grid struct {
	cols, rows int
	cells      [][]Cell

	cursorX, cursorY int
	cursorVisible    bool

	fg, bg Color
	bold   bool

	scrollTop, scrollBottom int

	dirty bool

	// reply is where device-report replies (CPR, DSR, DA) are written. A
	// nil reply is a silent no-op, matching "a missing master is a no-op".
	reply io.Writer
}

// NewGrid creates a grid of the given dimensions (already clamped by the
// caller via ClampDims) with default SGR state, full-grid scroll region,
// and a visible cursor at the origin.
func NewGrid(cols, rows int, reply io.Writer) *Grid {
	g := &Grid{
		cols:          cols,
		rows:          rows,
		cursorVisible: true,
		fg:            DefaultFg,
		bg:            DefaultBg,
		scrollTop:     0,
		scrollBottom:  rows - 1,
		reply:         reply,
	}
	g.cells = make([][]Cell, rows)
	for y := range g.cells {
		g.cells[y] = g.newRow()
	}
	return g
}

func (g *Grid) newRow() []Cell {
	row := make([]Cell, g.cols)
	for x := range row {
		row[x] = blankCell(g.fg, g.bg, g.bold)
	}
	return row
}

// SetReplyWriter replaces the writer used for device-report replies.
func (g *Grid) SetReplyWriter(w io.Writer) { g.reply = w }

func (g *Grid) Cols() int { return g.cols }
func (g *Grid) Rows() int { return g.rows }

// Dirty reports whether any grid mutation has happened since ClearDirty.
func (g *Grid) Dirty() bool { return g.dirty }

// ClearDirty resets the dirty flag; called by the renderer after a redraw.
func (g *Grid) ClearDirty() { g.dirty = false }

func (g *Grid) markDirty() { g.dirty = true }

// Cursor returns the current cursor position and visibility.
func (g *Grid) Cursor() (x, y int, visible bool) {
	return g.cursorX, g.cursorY, g.cursorVisible
}

// Cell returns a copy of the cell at (row, col); the zero Cell if out of
// bounds.
func (g *Grid) Cell(row, col int) Cell {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return Cell{}
	}
	return g.cells[row][col]
}

func (g *Grid) clampX(x int) int { return clampInt(x, 0, g.cols-1) }
func (g *Grid) clampY(y int) int { return clampInt(y, 0, g.rows-1) }

// PutRune writes r at the cursor using the current SGR state, handling the
// pending-wrap frontier: if cursorX == cols, a CR+NL happens first.
func (g *Grid) PutRune(r rune) {
	if g.cursorX >= g.cols {
		g.CarriageReturn()
		g.Newline()
	}
	g.cells[g.cursorY][g.cursorX] = Cell{Codepoint: r, Fg: g.fg, Bg: g.bg, Bold: g.bold}
	g.markDirty()
	g.cursorX++
}

// CarriageReturn moves the cursor to column 0.
func (g *Grid) CarriageReturn() { g.cursorX = 0 }

// Backspace moves the cursor back one column, clamped at 0.
func (g *Grid) Backspace() {
	if g.cursorX > 0 {
		g.cursorX--
	}
}

// Tab advances the cursor to the next multiple of 8; if that would reach
// cols, a CR+NL happens instead.
func (g *Grid) Tab() {
	next := (g.cursorX/8 + 1) * 8
	if next >= g.cols {
		g.CarriageReturn()
		g.Newline()
		return
	}
	g.cursorX = next
}

// Newline moves the cursor down one row; past scrollBottom it clamps and
// scrolls the region up by one instead, discarding the top row and
// blanking the bottom row in the current SGR state.
func (g *Grid) Newline() {
	if g.cursorY >= g.scrollBottom {
		g.cursorY = g.scrollBottom
		g.scrollRegionUp(1)
		return
	}
	g.cursorY++
}

// scrollRegionUp shifts rows [scrollTop, scrollBottom] up by n, discarding
// the top n rows and blanking the bottom n rows in the current SGR state.
func (g *Grid) scrollRegionUp(n int) {
	top, bottom := g.scrollTop, g.scrollBottom
	height := bottom - top + 1
	if n > height {
		n = height
	}
	for y := top; y <= bottom-n; y++ {
		g.cells[y] = g.cells[y+n]
	}
	for y := bottom - n + 1; y <= bottom; y++ {
		g.cells[y] = g.newRow()
	}
	g.markDirty()
}

// scrollRegionDown shifts rows [scrollTop, scrollBottom] down by n,
// blanking the top n rows in the current SGR state.
func (g *Grid) scrollRegionDown(n int) {
	top, bottom := g.scrollTop, g.scrollBottom
	height := bottom - top + 1
	if n > height {
		n = height
	}
	for y := bottom; y >= top+n; y-- {
		g.cells[y] = g.cells[y-n]
	}
	for y := top; y <= top+n-1; y++ {
		g.cells[y] = g.newRow()
	}
	g.markDirty()
}

// writeReply writes a device-report reply to the PTY master, silently
// doing nothing if no reply writer was configured.
func (g *Grid) writeReply(s string) {
	if g.reply == nil {
		return
	}
	_, _ = g.reply.Write([]byte(s))
}
