package views

import (
	"strings"
	"unicode"

	"github.com/rivo/tview"
)

// sanitizeForTerminal drops runes that tcell renders with the wrong width
// or that would move the cursor: emoji modifiers, joiners, variation
// selectors and control characters other than newline and tab.
func sanitizeForTerminal(s string) string {
	return strings.Map(func(r rune) rune {
		if dropRune(r) {
			return -1
		}
		return r
	}, s)
}

func dropRune(r rune) bool {
	switch {
	case r == '\n' || r == '\t':
		return false
	case r == '\r':
		return true
	case unicode.IsControl(r):
		return true
	case r >= 0x1F3FB && r <= 0x1F3FF: // skin tone modifiers
		return true
	case r == 0x200D: // zero width joiner
		return true
	case r >= 0xFE00 && r <= 0xFE0F, r >= 0xE0100 && r <= 0xE01EF: // variation selectors
		return true
	}
	return false
}

// display prepares server text for a dynamic-color tview primitive.
func display(s string) string {
	return tview.Escape(sanitizeForTerminal(s))
}
