package escpos

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Profile describes the physical characteristics of a thermal printer:
// how many characters fit on a line, which single-byte code page its
// font table uses, and how documents are terminated.
type Profile struct {
	CharsPerLine       int
	Encoding           string
	CutMode            CutMode
	FeedLinesBeforeCut int
}

// DefaultProfile returns the profile for a common 58mm printer.
func DefaultProfile() Profile {
	return Profile{
		CharsPerLine:       30,
		Encoding:           "cp437",
		CutMode:            CutFull,
		FeedLinesBeforeCut: 4,
	}
}

// Validate rejects profiles that cannot produce a well-formed document.
func (p Profile) Validate() error {
	if p.CharsPerLine <= 0 {
		return fmt.Errorf("chars_per_line must be positive, got %d", p.CharsPerLine)
	}
	if _, err := codePage(p.Encoding); err != nil {
		return err
	}
	switch p.CutMode {
	case CutFull, CutPartial, CutNone:
	default:
		return fmt.Errorf("unknown cut mode %q", p.CutMode)
	}
	if p.FeedLinesBeforeCut < 0 {
		return fmt.Errorf("feed_lines_before_cut must not be negative, got %d", p.FeedLinesBeforeCut)
	}
	return nil
}

// codePage maps an encoding name to its single-byte character map.
func codePage(name string) (*charmap.Charmap, error) {
	switch strings.ToLower(name) {
	case "cp437", "":
		return charmap.CodePage437, nil
	case "cp850":
		return charmap.CodePage850, nil
	case "cp852":
		return charmap.CodePage852, nil
	case "cp858":
		return charmap.CodePage858, nil
	case "cp866":
		return charmap.CodePage866, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	default:
		return nil, fmt.Errorf("unsupported printer encoding %q", name)
	}
}
