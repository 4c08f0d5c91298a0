package pdftext

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText canonicalizes provider output before it reaches the matcher:
// NFC composition, LF line endings, and removal of control characters other
// than newline and tab. PDF extractors emit decomposed accents and stray
// form feeds; without this step the same label can fail to match across
// extractors.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			sb.WriteRune(r)
		case r == ' ': // non-breaking space
			sb.WriteByte(' ')
		case r < 0x20 || r == 0x7f:
			// drop
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
