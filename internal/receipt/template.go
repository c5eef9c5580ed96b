// Package receipt assembles complete receipt documents from idea text.
package receipt

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"idea-print/internal/escpos"
)

// Lightbulb header printed at the top of every receipt.
const headerArt = `
     .-""-.
    /      \
   |  O  O  |
   |   __   |
    \ \__/ /
     '-..-'
       ||
      /__\
`

// Narrower variant for printers under 42 columns.
const headerArtNarrow = `
    .---.
   /     \
  | O   O |
  |  ___  |
   \_____/
     | |
    /___\
`

// narrowHeaderThreshold is the width below which the narrow header art
// is selected.
const narrowHeaderThreshold = 42

const timestampLayout = "2006-01-02 15:04:05"

// Build renders a complete receipt: init sequence, centered header
// art, bold title, timestamp, optional ID line, the wrapped idea text
// between dividers, footer, then feed and the profile's cut sequence.
// ideaID may be empty, in which case no ID line is printed.
func Build(ideaText, ideaID string, timestamp time.Time, profile escpos.Profile) ([]byte, error) {
	renderer, err := escpos.NewRenderer(profile)
	if err != nil {
		return nil, err
	}
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var buf bytes.Buffer

	buf.Write(escpos.Init)

	// Header art, centered
	buf.Write(escpos.AlignCenter)
	header := headerArt
	if profile.CharsPerLine < narrowHeaderThreshold {
		header = headerArtNarrow
	}
	for _, line := range strings.Split(strings.TrimSpace(header), "\n") {
		buf.Write(renderer.EncodeText(line))
		buf.WriteByte('\n')
	}

	buf.Write(renderer.BlankLines(1))

	// Title
	buf.Write(escpos.BoldOn)
	buf.Write(renderer.EncodeText("NEW IDEA"))
	buf.WriteByte('\n')
	buf.Write(escpos.BoldOff)

	// Timestamp
	buf.Write(renderer.EncodeText(timestamp.Format(timestampLayout)))
	buf.WriteByte('\n')

	if ideaID != "" {
		buf.Write(renderer.EncodeText(fmt.Sprintf("ID: %s", ideaID)))
		buf.WriteByte('\n')
	}

	buf.Write(renderer.BlankLines(1))

	// Idea text between dividers
	buf.Write(escpos.AlignLeft)
	buf.Write(renderer.Line('='))
	for _, line := range renderer.Wrap(ideaText) {
		buf.Write(renderer.EncodeText(line))
		buf.WriteByte('\n')
	}
	buf.Write(renderer.Line('='))

	// Footer
	buf.Write(escpos.AlignCenter)
	buf.Write(renderer.BlankLines(1))
	buf.Write(renderer.EncodeText("* * *"))
	buf.WriteByte('\n')

	buf.Write(escpos.Feed(profile.FeedLinesBeforeCut))
	buf.Write(escpos.Cut(profile.CutMode))

	return buf.Bytes(), nil
}

// BuildTestReceipt renders a diagnostic receipt used to verify
// end-to-end printer setup without a real idea.
func BuildTestReceipt(profile escpos.Profile) ([]byte, error) {
	return Build(
		"This is a test print to verify your thermal printer is working correctly. "+
			"If you can read this message, the printer is configured properly!",
		"TEST-001",
		time.Now(),
		profile,
	)
}
