package loop

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/h8d13/zucc-fb/internal/keymap"
)

type fakeGrid struct {
	dirty bool
}

func (g *fakeGrid) Dirty() bool { return g.dirty }
func (g *fakeGrid) ClearDirty() { g.dirty = false }

type fakeParser struct {
	fed []byte
}

func (p *fakeParser) Feed(b byte) { p.fed = append(p.fed, b) }

func newPipePair(t *testing.T) (r, w *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	t.Cleanup(func() { r.Close(); w.Close() })
	return r, w
}

func TestRunQuitsOnCtrlQ(t *testing.T) {
	inR, inW := newPipePair(t)
	ptyR, ptyW := newPipePair(t)
	defer ptyW.Close()

	grid := &fakeGrid{}
	parser := &fakeParser{}
	var written []byte
	l := New(int(inR.Fd()), int(ptyR.Fd()), parser, grid, keymap.New(),
		func(b []byte) error { written = append(written, b...); return nil },
		func() {})

	inW.Write([]byte{0x11})

	done := make(chan error, 1)
	go func() { done <- l.Run() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Ctrl+Q")
	}
}

func TestRunFeedsPTYBytesToParser(t *testing.T) {
	inR, inW := newPipePair(t)
	defer inW.Close()
	ptyR, ptyW := newPipePair(t)

	grid := &fakeGrid{}
	parser := &fakeParser{}
	l := New(int(inR.Fd()), int(ptyR.Fd()), parser, grid, keymap.New(),
		func(b []byte) error { return nil },
		func() {})

	ptyW.Write([]byte("hi"))

	go l.Run()
	time.Sleep(100 * time.Millisecond)
	l.Stop()
	ptyW.Close()

	time.Sleep(50 * time.Millisecond)

	if string(parser.fed) != "hi" {
		t.Fatalf("parser fed %q, want \"hi\"", parser.fed)
	}
}

func TestRunForwardsInputBytesToPTYWriter(t *testing.T) {
	inR, inW := newPipePair(t)
	ptyR, ptyW := newPipePair(t)
	defer ptyW.Close()

	grid := &fakeGrid{}
	parser := &fakeParser{}
	var acc written
	l := New(int(inR.Fd()), int(ptyR.Fd()), parser, grid, keymap.New(),
		func(b []byte) error { acc.append(b); return nil },
		func() {})

	inW.Write([]byte("ok"))

	go l.Run()
	time.Sleep(100 * time.Millisecond)
	l.Stop()

	if acc.get() != "ok" {
		t.Fatalf("writePTY got %q, want \"ok\"", acc.get())
	}
}

func TestRunStopsWithoutAnyIO(t *testing.T) {
	inR, inW := newPipePair(t)
	defer inW.Close()
	ptyR, ptyW := newPipePair(t)
	defer ptyW.Close()

	grid := &fakeGrid{}
	parser := &fakeParser{}
	l := New(int(inR.Fd()), int(ptyR.Fd()), parser, grid, keymap.New(),
		func(b []byte) error { return nil },
		func() {})

	done := make(chan error, 1)
	go func() { done <- l.Run() }()

	time.Sleep(50 * time.Millisecond)
	l.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after Stop()")
	}
}

func TestRunRedrawsOnlyWhenDirty(t *testing.T) {
	inR, inW := newPipePair(t)
	defer inW.Close()
	ptyR, ptyW := newPipePair(t)
	defer ptyW.Close()

	grid := &fakeGrid{dirty: true}
	parser := &fakeParser{}
	redraws := 0
	l := New(int(inR.Fd()), int(ptyR.Fd()), parser, grid, keymap.New(),
		func(b []byte) error { return nil },
		func() { redraws++ })

	go l.Run()
	time.Sleep(100 * time.Millisecond)
	l.Stop()
	time.Sleep(50 * time.Millisecond)

	if redraws != 1 {
		t.Fatalf("redraw called %d times, want exactly 1 (once while dirty, never after ClearDirty)", redraws)
	}
	if grid.dirty {
		t.Fatalf("grid still dirty after redraw")
	}
}

// written is a tiny concurrency-safe accumulator for bytes written to the
// fake PTY across goroutines in TestRunForwardsInputBytesToPTYWriter.
type written struct {
	mu   sync.Mutex
	data []byte
}

func (w *written) append(b []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.data = append(w.data, b...)
}

func (w *written) get() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.data)
}
