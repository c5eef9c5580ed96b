package escpos

import "strings"

// Wrap splits text into printer-width-bounded lines. Blank-line
// boundaries separate paragraphs; single line breaks within a paragraph
// start a new sub-line. Non-empty sub-lines are greedily word-wrapped
// without splitting words or hyphenating; an empty sub-line yields one
// blank output line. A single blank separator line is placed between
// paragraphs (never after the last).
//
// A token longer than width is never split: it is emitted on its own
// line and allowed to overflow, trading width compliance for fidelity.
func Wrap(text string, width int) []string {
	var lines []string

	paragraphs := strings.Split(text, "\n\n")
	for i, paragraph := range paragraphs {
		for _, sub := range strings.Split(paragraph, "\n") {
			sub = strings.TrimSpace(sub)
			if sub == "" {
				lines = append(lines, "")
				continue
			}
			lines = append(lines, wrapLine(sub, width)...)
		}
		if i < len(paragraphs)-1 {
			lines = append(lines, "")
		}
	}

	return lines
}

// wrapLine greedily packs whitespace-separated words into lines of at
// most width characters. Overlong words occupy a line of their own.
func wrapLine(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) <= width {
			current += " " + word
		} else {
			lines = append(lines, current)
			current = word
		}
	}
	return append(lines, current)
}
