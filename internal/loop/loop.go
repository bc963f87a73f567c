// Package loop drives the terminal's event loop: a non-blocking multiplex
// of the input file descriptor and the PTY master at roughly 60Hz, feeding
// PTY output through a Parser and input bytes through a keymap.KeyMapper,
// redrawing only when the grid reports a dirty frame.
package loop

import (
	"errors"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/h8d13/zucc-fb/internal/keymap"
)

// ErrShellExited is returned by Run when the PTY master reaches EOF,
// meaning the child shell has exited. A Ctrl+Q/ActionQuit or an external
// Stop() call instead end Run with a nil error, since those are
// operator-requested shutdowns rather than the shell going away.
var ErrShellExited = errors.New("loop: shell exited")

// Parser is fed each byte the PTY master produces (component D/E/F's
// term.Parser satisfies this).
type Parser interface {
	Feed(b byte)
}

// Grid reports and clears the render-dirty flag that gates redraws
// (term.Grid satisfies this).
type Grid interface {
	Dirty() bool
	ClearDirty()
}

// selectTimeoutUsec bounds each select() call to roughly one 60Hz frame,
// so a dirty grid is noticed and redrawn even with no pending I/O.
const selectTimeoutUsec = 16666

// Loop multiplexes the input and PTY master descriptors, decoding each
// side through the collaborators it was built with.
type Loop struct {
	inputFD, ptyFD int
	parser         Parser
	grid           Grid
	keys           *keymap.KeyMapper
	writePTY       func([]byte) error
	redraw         func()

	running int32 // atomic; 0 stops the loop, settable from a signal handler
}

// New builds a Loop. writePTY forwards bytes produced by key input to the
// PTY master; redraw repaints the whole grid and is invoked only when the
// grid reports a dirty frame.
func New(inputFD, ptyFD int, parser Parser, grid Grid, keys *keymap.KeyMapper, writePTY func([]byte) error, redraw func()) *Loop {
	l := &Loop{
		inputFD:  inputFD,
		ptyFD:    ptyFD,
		parser:   parser,
		grid:     grid,
		keys:     keys,
		writePTY: writePTY,
		redraw:   redraw,
	}
	atomic.StoreInt32(&l.running, 1)
	return l
}

// Stop requests the loop to exit at its next iteration. Safe to call from
// a SIGCHLD handler.
func (l *Loop) Stop() {
	atomic.StoreInt32(&l.running, 0)
}

// Running reports whether Stop has not yet been called.
func (l *Loop) Running() bool {
	return atomic.LoadInt32(&l.running) != 0
}

// Run blocks, servicing input and PTY output until Stop is called, either
// descriptor reaches EOF, or a read/write returns an unrecoverable error.
// A Ctrl+Q (or any keymap.ActionQuit) on the input side also ends the
// loop, matching the shell's own exit path.
func (l *Loop) Run() error {
	buf := make([]byte, 4096)

	for l.Running() {
		var fds unix.FdSet
		fdZero(&fds)
		fdSet(&fds, l.inputFD)
		fdSet(&fds, l.ptyFD)

		maxFD := l.inputFD
		if l.ptyFD > maxFD {
			maxFD = l.ptyFD
		}

		tv := unix.Timeval{Sec: 0, Usec: selectTimeoutUsec}
		n, err := unix.Select(maxFD+1, &fds, nil, nil, &tv)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}

		if n > 0 {
			if fdIsSet(&fds, l.inputFD) {
				stop, serr := l.serviceInput(buf)
				if serr != nil {
					return serr
				}
				if stop {
					return nil
				}
			}
			if fdIsSet(&fds, l.ptyFD) {
				done, serr := l.servicePTY(buf)
				if serr != nil {
					return serr
				}
				if done {
					return ErrShellExited
				}
			}
		}

		if l.grid.Dirty() {
			l.redraw()
			l.grid.ClearDirty()
		}
	}

	return nil
}

// serviceInput reads whatever input bytes are ready, maps each through
// the key mapper, and forwards any resulting PTY bytes in a single write.
// stop is true on a quit action or on EOF (zero-length read).
func (l *Loop) serviceInput(buf []byte) (stop bool, err error) {
	n, rerr := unix.Read(l.inputFD, buf)
	if rerr != nil {
		if rerr == unix.EAGAIN {
			return false, nil
		}
		return false, rerr
	}
	if n == 0 {
		return true, nil
	}

	var out []byte
	for _, b := range buf[:n] {
		action, seq := l.keys.ProcessByte(b)
		if action == keymap.ActionQuit {
			return true, nil
		}
		out = append(out, seq...)
	}
	if len(out) > 0 {
		if werr := l.writePTY(out); werr != nil {
			return false, werr
		}
	}
	return false, nil
}

// servicePTY drains the PTY master in a tight read loop until EAGAIN,
// feeding every byte to the parser in arrival order. done is true on EOF
// (the shell has exited).
func (l *Loop) servicePTY(buf []byte) (done bool, err error) {
	for {
		n, rerr := unix.Read(l.ptyFD, buf)
		if rerr != nil {
			if rerr == unix.EAGAIN {
				return false, nil
			}
			if rerr == unix.EINTR {
				continue
			}
			return false, rerr
		}
		if n == 0 {
			return true, nil
		}
		for _, b := range buf[:n] {
			l.parser.Feed(b)
		}
	}
}

func fdZero(set *unix.FdSet) {
	for i := range set.Bits {
		set.Bits[i] = 0
	}
}

func fdSet(set *unix.FdSet, fd int) {
	set.Bits[fd/64] |= int64(1) << (uint(fd) % 64)
}

func fdIsSet(set *unix.FdSet, fd int) bool {
	return set.Bits[fd/64]&(int64(1)<<(uint(fd)%64)) != 0
}
