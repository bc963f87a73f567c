package term

import (
	"bytes"
	"fmt"
	"testing"
)

func feedString(p *Parser, s string) {
	for i := 0; i < len(s); i++ {
		p.Feed(s[i])
	}
}

func TestHelloScenario(t *testing.T) {
	g := NewGrid(80, 24, nil)
	p := NewParser(g)
	feedString(p, "Hello\r\nWorld")

	x, y, _ := g.Cursor()
	if x != 5 || y != 1 {
		t.Fatalf("cursor = (%d,%d), want (5,1)", x, y)
	}

	want := "Hello"
	for i, r := range want {
		if g.Cell(0, i).Codepoint != r {
			t.Errorf("cell(0,%d) = %q, want %q", i, g.Cell(0, i).Codepoint, r)
		}
	}
	if g.Cell(0, 5).Codepoint != ' ' {
		t.Errorf("cell(0,5) = %q, want space", g.Cell(0, 5).Codepoint)
	}

	want2 := "World"
	for i, r := range want2 {
		if g.Cell(1, i).Codepoint != r {
			t.Errorf("cell(1,%d) = %q, want %q", i, g.Cell(1, i).Codepoint, r)
		}
	}
}

func TestSGRRedOn(t *testing.T) {
	g := NewGrid(80, 24, nil)
	p := NewParser(g)
	feedString(p, "\x1b[31mX\x1b[0mY")

	c0 := g.Cell(0, 0)
	if c0.Codepoint != 'X' {
		t.Fatalf("cell(0,0).Codepoint = %q, want X", c0.Codepoint)
	}
	if c0.Fg != Palette[1] {
		t.Errorf("cell(0,0).Fg = %#06x, want %#06x", c0.Fg, Palette[1])
	}
	if Palette[1] != 0x00CD0000 {
		t.Errorf("Palette[1] = %#06x, want 0x00CD0000", Palette[1])
	}

	c1 := g.Cell(0, 1)
	if c1.Codepoint != 'Y' {
		t.Fatalf("cell(0,1).Codepoint = %q, want Y", c1.Codepoint)
	}
	if c1.Fg != DefaultFg {
		t.Errorf("cell(0,1).Fg = %#06x, want %#06x", c1.Fg, DefaultFg)
	}
}

func TestEraseDisplayAfterPrompt(t *testing.T) {
	g := NewGrid(80, 24, nil)
	p := NewParser(g)
	feedString(p, "abc\x1b[2J\x1b[H")

	for y := 0; y < g.Rows(); y++ {
		for x := 0; x < g.Cols(); x++ {
			if c := g.Cell(y, x).Codepoint; c != ' ' {
				t.Fatalf("cell(%d,%d) = %q, want space", y, x, c)
			}
		}
	}
	x, y, _ := g.Cursor()
	if x != 0 || y != 0 {
		t.Fatalf("cursor = (%d,%d), want (0,0)", x, y)
	}
}

func TestScrollRegion(t *testing.T) {
	g := NewGrid(80, 24, nil)
	p := NewParser(g)

	// Seed rows 0..23 col 0 with a distinct marker per row (0-indexed),
	// positioning explicitly so no newline-triggered scroll happens.
	for row := 0; row < 24; row++ {
		feedString(p, fmt.Sprintf("\x1b[%d;1H%c", row+1, 'A'+row))
	}

	// Region rows 2..5 (0-indexed) via the 1-indexed CSI r; cursor to row
	// 5 (0-indexed), emit a newline to force a region scroll-up by one.
	feedString(p, "\x1b[3;6r\x1b[6;1H\n")

	wantRows := []struct {
		row  int
		char rune
	}{
		{0, 'A'}, {1, 'B'}, // untouched, above region
		{2, 'D'}, {3, 'E'}, {4, 'F'}, // shifted up from 3,4,5
		{6, 'G'}, // untouched, below region
	}
	for _, w := range wantRows {
		if got := g.Cell(w.row, 0).Codepoint; got != w.char {
			t.Errorf("row %d = %q, want %q", w.row, got, w.char)
		}
	}
	if got := g.Cell(5, 0).Codepoint; got != ' ' {
		t.Errorf("row 5 (region bottom, blanked) = %q, want space", got)
	}
}

func TestCPR(t *testing.T) {
	var buf bytes.Buffer
	g := NewGrid(80, 24, &buf)
	p := NewParser(g)
	feedString(p, "\x1b[3;10H")
	feedString(p, "\x1b[6n")

	if got := buf.String(); got != "\x1b[3;10R" {
		t.Fatalf("reply = %q, want %q", got, "\x1b[3;10R")
	}
}

func TestUTF8Scenario(t *testing.T) {
	g := NewGrid(80, 24, nil)
	p := NewParser(g)
	p.Feed(0xE4)
	p.Feed(0xB8)
	p.Feed(0xAD)

	if c := g.Cell(0, 0).Codepoint; c != 0x4E2D {
		t.Fatalf("cell(0,0) = %#x, want 0x4E2D", c)
	}
	x, y, _ := g.Cursor()
	if x != 1 || y != 0 {
		t.Fatalf("cursor = (%d,%d), want (1,0)", x, y)
	}
}

func TestSGRResetIdempotent(t *testing.T) {
	g := NewGrid(80, 24, nil)
	p := NewParser(g)
	feedString(p, "\x1b[31;1m")
	feedString(p, "\x1b[m")
	if g.fg != DefaultFg || g.bg != DefaultBg || g.bold {
		t.Fatalf("after reset fg=%#06x bg=%#06x bold=%v, want defaults", g.fg, g.bg, g.bold)
	}
	feedString(p, "\x1b[m")
	if g.fg != DefaultFg || g.bg != DefaultBg || g.bold {
		t.Fatalf("second reset changed state: fg=%#06x bg=%#06x bold=%v", g.fg, g.bg, g.bold)
	}
}

func TestScrollCancellation(t *testing.T) {
	g := NewGrid(80, 24, nil)
	p := NewParser(g)
	// Content sits on rows 4..6, away from the region edges: S discards the
	// top k rows and T the bottom k rows, so the round trip restores the
	// region only when those edge rows were already blank.
	feedString(p, "\x1b[5;1Hline1\r\n\x1b[6;1Hline2\r\n\x1b[7;1Hline3")

	before := make([]rune, 3)
	for i := 0; i < 3; i++ {
		before[i] = g.Cell(4+i, 0).Codepoint
	}

	feedString(p, "\x1b[3S\x1b[3T")

	for i := 0; i < 3; i++ {
		if got := g.Cell(4+i, 0).Codepoint; got != before[i] {
			t.Errorf("row %d = %q, want %q", 4+i, got, before[i])
		}
	}
}

func TestCursorPositionClamp(t *testing.T) {
	g := NewGrid(80, 24, nil)
	p := NewParser(g)
	feedString(p, "\x1b[999;999H")
	x, y, _ := g.Cursor()
	if x != g.Cols()-1 || y != g.Rows()-1 {
		t.Fatalf("cursor = (%d,%d), want (%d,%d)", x, y, g.Cols()-1, g.Rows()-1)
	}
}

func TestCSIParamOverflow(t *testing.T) {
	g := NewGrid(80, 24, nil)
	p := NewParser(g)
	// 20 semicolon-separated params: must not crash and must not shift
	// earlier params due to the overflow.
	feedString(p, "\x1b[1;2;3;4;5;6;7;8;9;10;11;12;13;14;15;16;17;18;19;20H")
	x, y, _ := g.Cursor()
	if y != 0 || x != 1 {
		t.Fatalf("cursor = (%d,%d), want (1,0) from p[0]=1,p[1]=2", x, y)
	}
}

func TestCSILeadingEmptyParamKeepsLaterParamInItsSlot(t *testing.T) {
	g := NewGrid(80, 24, nil)
	p := NewParser(g)
	// Row omitted (defaults to 1), column explicitly 5: the leading ';'
	// must not shift the '5' into params[0].
	feedString(p, "\x1b[;5H")
	x, y, _ := g.Cursor()
	if y != 0 || x != 4 {
		t.Fatalf("cursor = (%d,%d), want (4,0) from default row 1, col 5", x, y)
	}
}

func TestBareSGRResets(t *testing.T) {
	g := NewGrid(80, 24, nil)
	p := NewParser(g)
	feedString(p, "\x1b[31m")
	feedString(p, "\x1b[m")
	if g.fg != DefaultFg {
		t.Fatalf("bare ESC[m did not reset fg: %#06x", g.fg)
	}
}

func TestWrapAtLastColumn(t *testing.T) {
	g := NewGrid(40, 10, nil)
	p := NewParser(g)
	for i := 0; i < g.Cols(); i++ {
		p.Feed('x')
	}
	x, _, _ := g.Cursor()
	if x != g.Cols() {
		t.Fatalf("cursor.x = %d, want %d (pending wrap)", x, g.Cols())
	}
	p.Feed('y')
	_, y, _ := g.Cursor()
	if y != 1 {
		t.Fatalf("after wrap write, cursor.y = %d, want 1", y)
	}
	if g.Cell(1, 0).Codepoint != 'y' {
		t.Fatalf("cell(1,0) = %q, want 'y'", g.Cell(1, 0).Codepoint)
	}
}
