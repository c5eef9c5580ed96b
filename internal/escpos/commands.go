package escpos

// ESC/POS command prefixes
const (
	esc = 0x1b
	gs  = 0x1d
)

// Fixed command sequences. Each command is idempotent to reissue, so no
// formatting state needs to be tracked between blocks.
var (
	// Init resets the printer to its power-on state (ESC @).
	Init = []byte{esc, '@'}

	// Alignment (ESC a n)
	AlignLeft   = []byte{esc, 'a', 0x00}
	AlignCenter = []byte{esc, 'a', 0x01}
	AlignRight  = []byte{esc, 'a', 0x02}

	// Emphasis (ESC E n, ESC - n)
	BoldOn       = []byte{esc, 'E', 0x01}
	BoldOff      = []byte{esc, 'E', 0x00}
	UnderlineOn  = []byte{esc, '-', 0x01}
	UnderlineOff = []byte{esc, '-', 0x00}

	// Character size (ESC ! n)
	DoubleHeightOn = []byte{esc, '!', 0x10}
	DoubleWidthOn  = []byte{esc, '!', 0x20}
	DoubleSizeOn   = []byte{esc, '!', 0x30}
	NormalSize     = []byte{esc, '!', 0x00}

	// Paper cut (GS V n)
	CutFullSeq    = []byte{gs, 'V', 0x00}
	CutPartialSeq = []byte{gs, 'V', 0x01}
)

// Feed returns the command to feed n lines (ESC d n). The line count is
// encoded as a single byte; values above 255 are clamped.
func Feed(n int) []byte {
	if n < 0 {
		n = 0
	}
	if n > 255 {
		n = 255
	}
	return []byte{esc, 'd', byte(n)}
}

// CutMode selects which cut sequence, if any, terminates a document.
type CutMode string

const (
	CutFull    CutMode = "full"
	CutPartial CutMode = "partial"
	CutNone    CutMode = "none"
)

// Cut returns the cut sequence for the given mode. CutNone returns nil:
// the document simply ends after the final feed.
func Cut(mode CutMode) []byte {
	switch mode {
	case CutFull:
		return CutFullSeq
	case CutPartial:
		return CutPartialSeq
	default:
		return nil
	}
}

// Alignment of a text block on the paper.
type Alignment string

const (
	Left   Alignment = "left"
	Center Alignment = "center"
	Right  Alignment = "right"
)

// AlignCommand returns the alignment sequence for align. Unknown values
// fall back to left alignment.
func AlignCommand(align Alignment) []byte {
	switch align {
	case Center:
		return AlignCenter
	case Right:
		return AlignRight
	default:
		return AlignLeft
	}
}
