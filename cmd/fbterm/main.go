// Command fbterm runs a minimal terminal emulator directly on a Linux
// framebuffer device: it spawns a shell behind a PTY, parses its output
// into a cell grid, and rasterises that grid straight into /dev/fb0 using
// the primary font plus any fallback fonts given on the command line.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
	xterm "golang.org/x/term"

	"github.com/h8d13/zucc-fb/internal/glyph"
	"github.com/h8d13/zucc-fb/internal/keymap"
	"github.com/h8d13/zucc-fb/internal/loop"
	"github.com/h8d13/zucc-fb/internal/render"
	"github.com/h8d13/zucc-fb/internal/term"
)

const fbDevicePath = "/dev/fb0"
const defaultFontSizePx = 16.0

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fbterm:", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: %s <font.ttf> [font_size_px] [fallback.ttf ...]", os.Args[0])
	}
	fontPath := os.Args[1]

	fontSizePx := defaultFontSizePx
	fallbackArgsStart := 2
	if len(os.Args) >= 3 {
		if sz, err := strconv.ParseFloat(os.Args[2], 64); err == nil {
			if sz < 6 || sz > 72 {
				return fmt.Errorf("font size must be between 6 and 72, got %v", sz)
			}
			fontSizePx = sz
			fallbackArgsStart = 3
		}
	}

	fonts, err := loadFonts(fontPath, os.Args[fallbackArgsStart:], fontSizePx)
	if err != nil {
		return err
	}
	fontSet := glyph.NewFontSet(fonts)

	surf, fbFile, err := openFramebuffer(fbDevicePath)
	if err != nil {
		return err
	}
	defer surf.Close()
	defer fbFile.Close()

	m := fontSet.Metrics
	cols, rows := term.ClampDims((surf.Width()-4)/m.CharWidth, (surf.Height()-4)/m.CharHeight)
	fmt.Fprintf(os.Stderr, "terminal size: %dx%d (char %dx%d, screen %dx%d)\n",
		cols, rows, m.CharWidth, m.CharHeight, surf.Width(), surf.Height())

	surf.Clear(0x00000000)

	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/bash"
	}
	cmd := exec.Command(shell)
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return fmt.Errorf("spawn shell: %w", err)
	}
	defer ptmx.Close()

	grid := term.NewGrid(cols, rows, ptmx)
	parser := term.NewParser(grid)
	renderer := render.New(surf, fontSet, m.CharWidth, m.CharHeight, m.Baseline)

	oldState, err := xterm.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer xterm.Restore(int(os.Stdin.Fd()), oldState)

	if err := unix.SetNonblock(int(os.Stdin.Fd()), true); err != nil {
		return fmt.Errorf("set stdin non-blocking: %w", err)
	}
	if err := unix.SetNonblock(int(ptmx.Fd()), true); err != nil {
		return fmt.Errorf("set pty non-blocking: %w", err)
	}

	fmt.Print("\x1b[?25l")
	defer fmt.Print("\x1b[?25h")

	sigchld := make(chan os.Signal, 1)
	signal.Notify(sigchld, syscall.SIGCHLD)

	keys := keymap.New()
	writePTY := func(b []byte) error {
		_, err := ptmx.Write(b)
		return err
	}
	redraw := func() {
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				c := grid.Cell(y, x)
				renderer.Paint(x, y, render.Cell{
					Codepoint: c.Codepoint,
					Fg:        uint32(c.Fg),
					Bg:        uint32(c.Bg),
				})
			}
		}
	}

	l := loop.New(int(os.Stdin.Fd()), int(ptmx.Fd()), parser, grid, keys, writePTY, redraw)

	go func() {
		<-sigchld
		l.Stop()
	}()

	redraw()
	if err := l.Run(); err != nil && !errors.Is(err, loop.ErrShellExited) {
		return err
	}
	return nil
}

// loadFonts loads the primary font plus every fallback font path that
// parses successfully; a fallback that fails to load is logged and skipped
// rather than treated as fatal, matching the reference emulator's best-effort
// Arabic/Hebrew/Thai fallback loading.
func loadFonts(primaryPath string, fallbackPaths []string, sizePx float64) ([]*glyph.Font, error) {
	primaryData, err := os.ReadFile(primaryPath)
	if err != nil {
		return nil, fmt.Errorf("read primary font: %w", err)
	}
	primary, err := glyph.Load(primaryPath, primaryData, sizePx)
	if err != nil {
		return nil, fmt.Errorf("load primary font: %w", err)
	}

	fonts := []*glyph.Font{primary}
	for _, path := range fallbackPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("fbterm: skipping fallback font %s: %v", path, err)
			continue
		}
		f, err := glyph.Load(path, data, sizePx)
		if err != nil {
			log.Printf("fbterm: skipping fallback font %s: %v", path, err)
			continue
		}
		fonts = append(fonts, f)
	}
	return fonts, nil
}
