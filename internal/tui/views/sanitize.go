package views

import (
	"strings"
	"unicode/utf8"
)

// sanitizeForTerminal removes codepoints that tcell cannot lay out as a
// single cell run: skin tone modifiers, the zero width joiner, variation
// selectors and bidi controls. Multi-codepoint emoji collapse to their base.
func sanitizeForTerminal(s string) string {
	if !strings.ContainsFunc(s, isProblematicRune) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isProblematicRune(r) {
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

func isProblematicRune(r rune) bool {
	switch {
	case r >= 0x1F3FB && r <= 0x1F3FF: // skin tones
		return true
	case r == 0x200D: // ZWJ
		return true
	case r >= 0xFE00 && r <= 0xFE0F, r >= 0xE0100 && r <= 0xE01EF: // variation selectors
		return true
	case r >= 0x202A && r <= 0x202E, r >= 0x2066 && r <= 0x2069: // bidi overrides and isolates
		return true
	default:
		return false
	}
}
