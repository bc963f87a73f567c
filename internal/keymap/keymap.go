// Package keymap turns raw keyboard input — either a byte stream read from
// the controlling terminal line, or individual evdev key events — into PTY
// byte sequences and host-level shortcut actions. The byte-stream state
// machine mirrors a Linux framebuffer terminal's stdin reader; the evdev
// path covers direct /dev/input device access where scancodes and
// modifiers arrive pre-split instead of packed into an escape sequence.
package keymap

// Action is a closed set of host-handled shortcuts that never reach the
// PTY as bytes.
type Action int

const (
	ActionNone Action = iota
	ActionCopy
	ActionPaste
	ActionScrollUp
	ActionScrollDown
	ActionClearScreen
	ActionQuit
	ActionIncreaseFont
	ActionDecreaseFont
)

// Linux evdev key codes used by the Event path (linux/input-event-codes.h).
const (
	KeyEsc        = 1
	KeyLeftCtrl   = 29
	KeyRightCtrl  = 97
	KeyLeftShift  = 42
	KeyRightShift = 54
	KeyLeftAlt    = 56
	KeyRightAlt   = 100
	KeyTab        = 15
	KeyEnter      = 28
	KeyBackspace  = 14
	KeySpace      = 57
	KeyUp         = 103
	KeyDown       = 108
	KeyLeft       = 105
	KeyRight      = 106
	KeyHome       = 102
	KeyEnd        = 107
	KeyPageUp     = 104
	KeyPageDown   = 109
	KeyInsert     = 110
	KeyDelete     = 111
	KeyMinus      = 12
	KeyEqual      = 13

	// Letter keys. evdev lays these out in physical QWERTY rows, not
	// alphabetical keycode order, and the rows aren't contiguous with each
	// other (nor with the punctuation/modifier keys interleaved between
	// them), so each letter gets its own named constant rather than a
	// KeyA..KeyA+25 range.
	KeyQ = 16
	KeyW = 17
	KeyE = 18
	KeyR = 19
	KeyT = 20
	KeyY = 21
	KeyU = 22
	KeyI = 23
	KeyO = 24
	KeyP = 25
	KeyA = 30
	KeyS = 31
	KeyD = 32
	KeyF = 33
	KeyG = 34
	KeyH = 35
	KeyJ = 36
	KeyK = 37
	KeyL = 38
	KeyZ = 44
	KeyX = 45
	KeyC = 46
	KeyV = 47
	KeyB = 48
	KeyN = 49
	KeyM = 50
)

// letterKeys maps each evdev letter keycode to its lowercase ASCII letter.
var letterKeys = map[int]byte{
	KeyQ: 'q', KeyW: 'w', KeyE: 'e', KeyR: 'r', KeyT: 't', KeyY: 'y', KeyU: 'u', KeyI: 'i', KeyO: 'o', KeyP: 'p',
	KeyA: 'a', KeyS: 's', KeyD: 'd', KeyF: 'f', KeyG: 'g', KeyH: 'h', KeyJ: 'j', KeyK: 'k', KeyL: 'l',
	KeyZ: 'z', KeyX: 'x', KeyC: 'c', KeyV: 'v', KeyB: 'b', KeyN: 'n', KeyM: 'm',
}

// escState tracks how far a byte-stream CSI sequence has progressed.
type escState int

const (
	escNone escState = iota
	escStarted
	escBracket
)

// KeyMapper holds modifier and escape-sequence state across successive
// ProcessByte/HandleEvent calls, replacing the file-scope statics a C
// implementation would use with ordinary struct fields.
type KeyMapper struct {
	ctrl, alt, shift bool

	escState escState
	escBuf   []byte
}

// New returns a mapper with no keys held down and no escape sequence in
// progress.
func New() *KeyMapper {
	return &KeyMapper{}
}

// HandleRelease clears the modifier tracked by an evdev key-up event for
// keycode, if it is a modifier key.
func (k *KeyMapper) HandleRelease(keycode int) {
	switch keycode {
	case KeyLeftCtrl, KeyRightCtrl:
		k.ctrl = false
	case KeyLeftShift, KeyRightShift:
		k.shift = false
	case KeyLeftAlt, KeyRightAlt:
		k.alt = false
	}
}

// HandleEvent processes an evdev key-down event, returning any host action
// it triggers and the PTY byte sequence (if any) it produces. Modifier
// keys update state and never produce output of their own.
func (k *KeyMapper) HandleEvent(keycode int) (Action, []byte) {
	switch keycode {
	case KeyLeftCtrl, KeyRightCtrl:
		k.ctrl = true
		return ActionNone, nil
	case KeyLeftShift, KeyRightShift:
		k.shift = true
		return ActionNone, nil
	case KeyLeftAlt, KeyRightAlt:
		k.alt = true
		return ActionNone, nil
	}

	if keycode == KeyQ && k.ctrl {
		return ActionQuit, nil
	}

	if k.ctrl {
		switch keycode {
		case KeyEqual:
			return ActionIncreaseFont, nil
		case KeyMinus:
			return ActionDecreaseFont, nil
		}
	}

	return ActionNone, k.sequenceFor(keycode)
}

// sequenceFor converts a non-modifier keycode into the bytes it sends to
// the PTY, honoring the currently tracked shift state. Keys this mapper
// doesn't recognize produce no bytes.
func (k *KeyMapper) sequenceFor(keycode int) []byte {
	switch keycode {
	case KeyUp:
		return []byte("\x1b[A")
	case KeyDown:
		return []byte("\x1b[B")
	case KeyRight:
		return []byte("\x1b[C")
	case KeyLeft:
		return []byte("\x1b[D")
	case KeyHome:
		return []byte("\x1b[H")
	case KeyEnd:
		return []byte("\x1b[F")
	case KeyPageUp:
		return []byte("\x1b[5~")
	case KeyPageDown:
		return []byte("\x1b[6~")
	case KeyInsert:
		return []byte("\x1b[2~")
	case KeyDelete:
		return []byte("\x1b[3~")
	case KeyEnter:
		return []byte("\r")
	case KeyTab:
		return []byte("\t")
	case KeyBackspace:
		return []byte("\x7f")
	case KeyEsc:
		return []byte("\x1b")
	case KeySpace:
		return []byte(" ")
	case KeyMinus:
		if k.shift {
			return []byte("_")
		}
		return []byte("-")
	}

	if c, ok := letterKeys[keycode]; ok {
		if k.ctrl {
			return []byte{c - 'a' + 1}
		}
		if k.shift {
			c = c - 'a' + 'A'
		}
		return []byte{c}
	}

	return nil
}

// ProcessByte feeds one byte read from the terminal line, returning any
// host action it triggers and the bytes (if any) to forward to the PTY.
// It is the byte-stream counterpart of HandleEvent, used when input
// arrives as a cooked/raw tty stream rather than discrete evdev events.
func (k *KeyMapper) ProcessByte(ch byte) (Action, []byte) {
	if k.escState != escNone {
		return k.continueEscape(ch)
	}

	if ch == 0x1B {
		k.escState = escStarted
		k.escBuf = k.escBuf[:0]
		return ActionNone, nil
	}

	if ch < 0x20 {
		return k.controlChar(ch)
	}

	return ActionNone, []byte{ch}
}

// continueEscape advances a CSI sequence already begun by ESC (and
// possibly ESC[), recognizing arrow keys and the numbered ~-terminated
// special keys; any other byte stream silently drains as an unrecognized
// escape sequence, matching the legacy stdin reader's timeout-free design.
func (k *KeyMapper) continueEscape(ch byte) (Action, []byte) {
	if k.escState == escStarted && ch == '[' {
		k.escState = escBracket
		return ActionNone, nil
	}

	if k.escState == escBracket {
		k.escBuf = append(k.escBuf, ch)

		if ch >= 'A' && ch <= 'D' {
			k.escState = escNone
			switch ch {
			case 'A':
				return ActionNone, []byte("\x1b[A")
			case 'B':
				return ActionNone, []byte("\x1b[B")
			case 'C':
				return ActionNone, []byte("\x1b[C")
			case 'D':
				return ActionNone, []byte("\x1b[D")
			}
		}

		if ch == '~' {
			k.escState = escNone
			code := 0
			if len(k.escBuf) >= 1 {
				code = int(k.escBuf[0] - '0')
			}
			if len(k.escBuf) >= 2 && k.escBuf[1] >= '0' && k.escBuf[1] <= '9' {
				code = code*10 + int(k.escBuf[1]-'0')
			}
			switch code {
			case 1:
				return ActionNone, []byte("\x1b[H")
			case 2:
				return ActionNone, []byte("\x1b[2~")
			case 3:
				return ActionNone, []byte("\x1b[3~")
			case 4:
				return ActionNone, []byte("\x1b[F")
			case 5:
				if k.ctrl {
					return ActionScrollUp, nil
				}
				return ActionNone, []byte("\x1b[5~")
			case 6:
				if k.ctrl {
					return ActionScrollDown, nil
				}
				return ActionNone, []byte("\x1b[6~")
			}
			return ActionNone, nil
		}

		if len(k.escBuf) >= 15 {
			k.escState = escNone
			k.escBuf = k.escBuf[:0]
		}
		return ActionNone, nil
	}

	// ESC followed by something other than '[': abandon the sequence and
	// reprocess ch as a fresh byte.
	k.escState = escNone
	return k.ProcessByte(ch)
}

// controlChar handles a raw control byte (0x00-0x1F), mapping the handful
// of well-known shortcuts to host actions and otherwise forwarding the
// byte unchanged to the PTY (so the shell's own line discipline, e.g.
// readline bindings, still sees it).
func (k *KeyMapper) controlChar(ch byte) (Action, []byte) {
	switch ch {
	case 0x0C: // Ctrl+L
		return ActionClearScreen, []byte{ch}
	case 0x11: // Ctrl+Q
		return ActionQuit, nil
	case 0x19: // Ctrl+Y
		return ActionPaste, []byte{ch}
	case 0x1F: // Ctrl+_
		return ActionDecreaseFont, nil
	default:
		return ActionNone, []byte{ch}
	}
}
