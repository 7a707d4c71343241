package scan

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Normalize folds full-width scanner output to ASCII and strips the
// suffix/prefix control characters some wedges emit.
func Normalize(raw string) string {
	s := width.Fold.String(norm.NFKC.String(raw))
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
