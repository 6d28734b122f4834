package diagnostics

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Placeholders substituted by Normalize.
const (
	quotedPlaceholder = `"…"`
	digitPlaceholder  = '#'
)

// Normalize reduces a failure message to a grouping key. It case-folds the
// text, collapses whitespace, replaces quoted literals with a placeholder and
// replaces every run of digits with '#', so messages that differ only in the
// offending value land in the same cluster.
func Normalize(message string) string {
	folded := cases.Fold().String(strings.TrimSpace(message))

	var b strings.Builder
	b.Grow(len(folded))

	var (
		quote   rune
		inDigit bool
		inSpace bool
	)
	for _, r := range folded {
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			continue
		}

		switch {
		case r == '"' || r == '`':
			quote = r
			b.WriteString(quotedPlaceholder)
			inDigit, inSpace = false, false
		case unicode.IsDigit(r):
			if !inDigit {
				b.WriteRune(digitPlaceholder)
			}
			inDigit, inSpace = true, false
		case unicode.IsSpace(r):
			if !inSpace {
				b.WriteByte(' ')
			}
			inDigit, inSpace = false, true
		default:
			b.WriteRune(r)
			inDigit, inSpace = false, false
		}
	}
	return b.String()
}
