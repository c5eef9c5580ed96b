package escpos

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// fallbackGlyph replaces characters outside the profile's code page.
// Unmappable text degrades instead of aborting the document.
const fallbackGlyph = '?'

// TextBlock is a run of text with uniform formatting. Blocks are inputs
// to the renderer, never persisted.
type TextBlock struct {
	Text         string
	Bold         bool
	Align        Alignment
	DoubleHeight bool
	DoubleWidth  bool
}

// Renderer turns text blocks into ESC/POS byte sequences for one
// printer profile. It is stateless apart from the profile and safe for
// concurrent use.
type Renderer struct {
	profile Profile
	cm      *charmap.Charmap
}

// NewRenderer validates the profile and builds a renderer for it.
func NewRenderer(profile Profile) (*Renderer, error) {
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid printer profile: %w", err)
	}
	cm, err := codePage(profile.Encoding)
	if err != nil {
		return nil, err
	}
	return &Renderer{profile: profile, cm: cm}, nil
}

// Profile returns the profile the renderer was built with.
func (r *Renderer) Profile() Profile {
	return r.profile
}

// EncodeText converts text to printer bytes using the profile's code
// page, substituting the fallback glyph for unmappable runes.
func (r *Renderer) EncodeText(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, ch := range text {
		b, ok := r.cm.EncodeRune(ch)
		if !ok {
			b = fallbackGlyph
		}
		out = append(out, b)
	}
	return out
}

// Wrap wraps text to the profile width.
func (r *Renderer) Wrap(text string) []string {
	return Wrap(text, r.profile.CharsPerLine)
}

// RenderBlock renders one text block: alignment, emphasis and size
// commands, the wrapped and encoded text lines, then the commands that
// restore default formatting.
func (r *Renderer) RenderBlock(block TextBlock) []byte {
	var buf bytes.Buffer

	buf.Write(AlignCommand(block.Align))

	if block.Bold {
		buf.Write(BoldOn)
	}

	switch {
	case block.DoubleHeight && block.DoubleWidth:
		buf.Write(DoubleSizeOn)
	case block.DoubleHeight:
		buf.Write(DoubleHeightOn)
	case block.DoubleWidth:
		buf.Write(DoubleWidthOn)
	}

	// Double-width glyphs take two columns each.
	width := r.profile.CharsPerLine
	if block.DoubleWidth {
		width /= 2
	}

	var lines []string
	if strings.TrimSpace(block.Text) == "" {
		lines = []string{block.Text}
	} else {
		lines = wrapLine(strings.TrimSpace(block.Text), width)
	}

	for _, line := range lines {
		buf.Write(r.EncodeText(line))
		buf.WriteByte('\n')
	}

	if block.Bold {
		buf.Write(BoldOff)
	}
	if block.DoubleHeight || block.DoubleWidth {
		buf.Write(NormalSize)
	}

	return buf.Bytes()
}

// Render assembles a complete document from blocks: init sequence,
// each block in order, then the profile's feed and cut.
func (r *Renderer) Render(blocks []TextBlock) []byte {
	var buf bytes.Buffer

	buf.Write(Init)
	for _, block := range blocks {
		buf.Write(r.RenderBlock(block))
	}
	buf.Write(Feed(r.profile.FeedLinesBeforeCut))
	buf.Write(Cut(r.profile.CutMode))

	return buf.Bytes()
}

// Line renders a horizontal rule of ch across the full printer width.
func (r *Renderer) Line(ch byte) []byte {
	line := bytes.Repeat([]byte{ch}, r.profile.CharsPerLine)
	return append(line, '\n')
}

// BlankLines renders count empty lines.
func (r *Renderer) BlankLines(count int) []byte {
	return bytes.Repeat([]byte{'\n'}, count)
}
