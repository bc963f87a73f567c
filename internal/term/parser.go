package term

// state is the parser's top-level mode: the four named states from the
// data model plus stateEscCharset, an Esc sub-state that swallows the byte
// after "ESC (" and that State reports as "Esc". Held as a small sum type
// rather than integer flags, with
// CSI's parameter vector and OSC's (discarded) payload as auxiliary fields
// alongside it.
type state int

const (
	stateNormal state = iota
	stateEsc
	stateCsi
	stateOsc
	stateEscCharset
)

const maxCSIParams = 16

// Parser drives the per-byte ANSI/CSI/OSC state machine described in the
// component design and dispatches recognized operations onto a Grid. It
// owns the UTF-8 accumulator, since the two are coupled: a control byte
// or ESC seen in Normal state discards any in-flight UTF-8 sequence.
type Parser struct {
	st state

	params     [maxCSIParams]int
	paramCount int
	private    bool

	grid *Grid
	dec  utf8Decoder
}

// NewParser creates a parser that dispatches operations onto grid.
func NewParser(grid *Grid) *Parser {
	return &Parser{grid: grid}
}

// State reports the parser's current top-level state, for introspection
// and the "parser state in {Normal, Esc, Csi, Osc}" invariant.
func (p *Parser) State() string {
	switch p.st {
	case stateNormal:
		return "Normal"
	case stateEsc, stateEscCharset:
		return "Esc"
	case stateCsi:
		return "Csi"
	case stateOsc:
		return "Osc"
	default:
		return "Normal"
	}
}

// Feed processes a single byte from the PTY master, mutating the grid as a
// side effect. It must be called in arrival order across however many
// reads the byte stream is split into; the parser's state is preserved
// between calls.
func (p *Parser) Feed(b byte) {
	switch p.st {
	case stateNormal:
		p.feedNormal(b)
	case stateEsc:
		p.feedEsc(b)
	case stateEscCharset:
		// The byte following '(' is the charset selector itself; it is
		// silently discarded and we fall back to Normal.
		p.st = stateNormal
	case stateCsi:
		p.feedCsi(b)
	case stateOsc:
		p.feedOsc(b)
	}
}

func (p *Parser) feedNormal(b byte) {
	switch {
	case b == 0x1B:
		p.dec.Reset()
		p.st = stateEsc
	case b == '\n':
		p.dec.Reset()
		p.grid.Newline()
	case b == '\r':
		p.dec.Reset()
		p.grid.CarriageReturn()
	case b == '\b':
		p.dec.Reset()
		p.grid.Backspace()
	case b == '\t':
		p.dec.Reset()
		p.grid.Tab()
	case b < 0x20:
		// Other C0 control bytes are ignored.
	default:
		if r, ok := p.dec.Feed(b); ok {
			p.grid.PutRune(r)
		}
	}
}

func (p *Parser) feedEsc(b byte) {
	switch b {
	case '[':
		p.paramCount = 1
		p.params = [maxCSIParams]int{}
		p.private = false
		p.st = stateCsi
	case ']':
		p.st = stateOsc
	case '(':
		p.st = stateEscCharset
	default:
		p.st = stateNormal
	}
}

func (p *Parser) feedCsi(b byte) {
	switch {
	case b >= '0' && b <= '9':
		idx := p.paramCount - 1
		p.params[idx] = p.params[idx]*10 + int(b-'0')
	case b == ';':
		if p.paramCount < maxCSIParams {
			p.paramCount++
		}
	case b == '?':
		p.private = true
	case b >= '@' && b <= '~':
		p.dispatchCSI(b)
		p.st = stateNormal
		p.private = false
	case b >= 0x20 && b <= 0x2F:
		// Intermediate byte, ignored.
	default:
		p.st = stateNormal
	}
}

func (p *Parser) feedOsc(b byte) {
	if b == 0x07 || b == 0x1B {
		p.st = stateNormal
	}
	// Payload bytes are drained and discarded; OSC interpretation beyond
	// termination detection is out of scope.
}

func (p *Parser) dispatchCSI(final byte) {
	params := p.params[:p.paramCount]
	switch final {
	case 'H', 'f':
		p.grid.CursorPosition(params)
	case 'A':
		p.grid.CursorUp(params)
	case 'B':
		p.grid.CursorDown(params)
	case 'C':
		p.grid.CursorForward(params)
	case 'D':
		p.grid.CursorBack(params)
	case 'G':
		p.grid.ColumnAbsolute(params)
	case 'd':
		p.grid.RowAbsolute(params)
	case 'J':
		p.grid.EraseDisplay(params)
	case 'K':
		p.grid.EraseLine(params)
	case 'X':
		p.grid.EraseChars(params)
	case 'P':
		p.grid.DeleteChars(params)
	case '@':
		p.grid.InsertChars(params)
	case 'L':
		p.grid.InsertLines(params)
	case 'M':
		p.grid.DeleteLines(params)
	case 'S':
		p.grid.ScrollUp(params)
	case 'T':
		p.grid.ScrollDown(params)
	case 'r':
		p.grid.SetScrollRegion(params)
	case 'm':
		p.grid.SGR(params)
	case 'h':
		p.grid.SetMode(params, p.private)
	case 'l':
		p.grid.ResetMode(params, p.private)
	case 'n':
		p.grid.DeviceStatus(params)
	case 'c':
		p.grid.DeviceAttributes()
	default:
		// Unknown final byte: silently absorbed.
	}
}
