package term

import "fmt"

// param returns params[idx] if present and non-zero-by-convention, else
// def. Most CSI ops treat a missing or zero parameter as the documented
// default.
func param(params []int, idx, def int) int {
	if idx >= len(params) || params[idx] == 0 {
		return def
	}
	return params[idx]
}

// paramMax1 returns max(params[idx], 1), the "repeat count" convention
// used by the cursor-movement and line/char shift ops.
func paramMax1(params []int, idx int) int {
	if idx >= len(params) || params[idx] <= 0 {
		return 1
	}
	return params[idx]
}

// CursorPosition implements CSI H / CSI f: 1-based row;col, default 1;1.
func (g *Grid) CursorPosition(params []int) {
	row := param(params, 0, 1) - 1
	col := param(params, 1, 1) - 1
	g.cursorY = g.clampY(row)
	g.cursorX = g.clampX(col)
}

// CursorUp implements CSI A.
func (g *Grid) CursorUp(params []int) {
	g.cursorY = g.clampY(g.cursorY - paramMax1(params, 0))
}

// CursorDown implements CSI B.
func (g *Grid) CursorDown(params []int) {
	g.cursorY = g.clampY(g.cursorY + paramMax1(params, 0))
}

// CursorForward implements CSI C.
func (g *Grid) CursorForward(params []int) {
	g.cursorX = g.clampX(g.cursorX + paramMax1(params, 0))
}

// CursorBack implements CSI D.
func (g *Grid) CursorBack(params []int) {
	g.cursorX = g.clampX(g.cursorX - paramMax1(params, 0))
}

// ColumnAbsolute implements CSI G.
func (g *Grid) ColumnAbsolute(params []int) {
	g.cursorX = g.clampX(param(params, 0, 1) - 1)
}

// RowAbsolute implements CSI d.
func (g *Grid) RowAbsolute(params []int) {
	g.cursorY = g.clampY(param(params, 0, 1) - 1)
}

// EraseDisplay implements CSI J.
func (g *Grid) EraseDisplay(params []int) {
	switch param(params, 0, 0) {
	case 0:
		g.eraseCellsFrom(g.cursorY, g.cursorX, g.rows-1, g.cols-1)
	case 1:
		g.eraseCellsFrom(0, 0, g.cursorY, g.cursorX)
	case 2, 3:
		g.eraseCellsFrom(0, 0, g.rows-1, g.cols-1)
	}
}

// EraseLine implements CSI K, restricted to the cursor's row.
func (g *Grid) EraseLine(params []int) {
	switch param(params, 0, 0) {
	case 0:
		g.eraseCellsFrom(g.cursorY, g.cursorX, g.cursorY, g.cols-1)
	case 1:
		g.eraseCellsFrom(g.cursorY, 0, g.cursorY, g.cursorX)
	case 2:
		g.eraseCellsFrom(g.cursorY, 0, g.cursorY, g.cols-1)
	}
}

// eraseCellsFrom blanks every cell from (fromRow, fromCol) through
// (toRow, toCol) inclusive, in reading order, using the current SGR state.
func (g *Grid) eraseCellsFrom(fromRow, fromCol, toRow, toCol int) {
	for y := fromRow; y <= toRow; y++ {
		start, end := 0, g.cols-1
		if y == fromRow {
			start = fromCol
		}
		if y == toRow {
			end = toCol
		}
		for x := start; x <= end; x++ {
			g.cells[y][x] = blankCell(g.fg, g.bg, g.bold)
		}
	}
	g.markDirty()
}

// EraseChars implements CSI X: blank n cells starting at the cursor,
// stopping at the row end; cursor is unchanged.
func (g *Grid) EraseChars(params []int) {
	n := paramMax1(params, 0)
	end := g.cursorX + n
	if end > g.cols {
		end = g.cols
	}
	for x := g.cursorX; x < end; x++ {
		g.cells[g.cursorY][x] = blankCell(g.fg, g.bg, g.bold)
	}
	g.markDirty()
}

// DeleteChars implements CSI P: remove k cells at the cursor, shifting the
// row left and padding the right edge with blanks.
func (g *Grid) DeleteChars(params []int) {
	k := paramMax1(params, 0)
	row := g.cells[g.cursorY]
	n := copy(row[g.cursorX:], row[g.cursorX+minInt(k, g.cols-g.cursorX):])
	for x := g.cursorX + n; x < g.cols; x++ {
		row[x] = blankCell(g.fg, g.bg, g.bold)
	}
	g.markDirty()
}

// InsertChars implements CSI @: shift the row right by k, blanking k cells
// at the cursor.
func (g *Grid) InsertChars(params []int) {
	k := paramMax1(params, 0)
	row := g.cells[g.cursorY]
	for x := g.cols - 1; x >= g.cursorX+k; x-- {
		row[x] = row[x-k]
	}
	end := g.cursorX + k
	if end > g.cols {
		end = g.cols
	}
	for x := g.cursorX; x < end; x++ {
		row[x] = blankCell(g.fg, g.bg, g.bold)
	}
	g.markDirty()
}

// InsertLines implements CSI L: within the scroll region, shift
// [cursorY, scrollBottom] down by k, blanking the rows freed at cursorY.
func (g *Grid) InsertLines(params []int) {
	if g.cursorY < g.scrollTop || g.cursorY > g.scrollBottom {
		return
	}
	k := paramMax1(params, 0)
	savedTop := g.scrollTop
	g.scrollTop = g.cursorY
	g.scrollRegionDown(k)
	g.scrollTop = savedTop
}

// DeleteLines implements CSI M: within the scroll region, shift rows up by
// k, blanking scrollBottom's freed rows.
func (g *Grid) DeleteLines(params []int) {
	if g.cursorY < g.scrollTop || g.cursorY > g.scrollBottom {
		return
	}
	k := paramMax1(params, 0)
	savedTop := g.scrollTop
	g.scrollTop = g.cursorY
	g.scrollRegionUp(k)
	g.scrollTop = savedTop
}

// ScrollUp implements CSI S: repeat the region scroll-up.
func (g *Grid) ScrollUp(params []int) {
	g.scrollRegionUp(paramMax1(params, 0))
}

// ScrollDown implements CSI T: repeat the region scroll-down.
func (g *Grid) ScrollDown(params []int) {
	g.scrollRegionDown(paramMax1(params, 0))
}

// SetScrollRegion implements CSI r.
func (g *Grid) SetScrollRegion(params []int) {
	top := param(params, 0, 1) - 1
	bottom := param(params, 1, g.rows) - 1
	g.scrollTop = g.clampY(top)
	g.scrollBottom = g.clampY(bottom)
}

// SetMode implements CSI h.
func (g *Grid) SetMode(params []int, private bool) {
	if !private {
		return
	}
	for _, p := range params {
		switch p {
		case 25:
			g.cursorVisible = true
		case 47, 1047, 1049:
			// Acknowledged; alternate screen is not backed (Non-goal).
		}
	}
}

// ResetMode implements CSI l, the mirror of SetMode.
func (g *Grid) ResetMode(params []int, private bool) {
	if !private {
		return
	}
	for _, p := range params {
		switch p {
		case 25:
			g.cursorVisible = false
		case 47, 1047, 1049:
		}
	}
}

// DeviceStatus implements CSI n: CPR (6) and terminal-OK status (5).
func (g *Grid) DeviceStatus(params []int) {
	switch param(params, 0, 0) {
	case 6:
		g.writeReply(fmt.Sprintf("\x1b[%d;%dR", g.cursorY+1, g.cursorX+1))
	case 5:
		g.writeReply("\x1b[0n")
	}
}

// DeviceAttributes implements CSI c: reply as a VT100.
func (g *Grid) DeviceAttributes() {
	g.writeReply("\x1b[?1;2c")
}

// SGR implements CSI m. An empty parameter list is treated as a single 0
// (reset).
func (g *Grid) SGR(params []int) {
	if len(params) == 0 {
		params = []int{0}
	}
	for _, p := range params {
		switch {
		case p == 0:
			g.fg, g.bg, g.bold = DefaultFg, DefaultBg, false
		case p == 1:
			g.bold = true
		case p == 22:
			g.bold = false
		case p >= 30 && p <= 37:
			g.fg = Palette[fgPaletteIndex(p)]
		case p == 39:
			g.fg = DefaultFg
		case p >= 40 && p <= 47:
			g.bg = Palette[bgPaletteIndex(p)]
		case p == 49:
			g.bg = DefaultBg
		case p >= 90 && p <= 97:
			g.fg = Palette[fgPaletteIndex(p)]
		case p >= 100 && p <= 107:
			g.bg = Palette[bgPaletteIndex(p)]
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
