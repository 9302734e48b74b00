package extract

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// controlStripper maps control whitespace (newline, tab, carriage return)
// to a space so word boundaries survive and drops every other control
// character. A chain carries buffers between calls, so each use builds its
// own.
func controlStripper() transform.Transformer {
	return transform.Chain(
		runes.Map(func(r rune) rune {
			if unicode.IsControl(r) && unicode.IsSpace(r) {
				return ' '
			}
			return r
		}),
		runes.Remove(runes.Predicate(unicode.IsControl)),
	)
}

// Normalize removes control characters from extracted text. Runs of
// whitespace are left for the tokenizer to collapse. It is safe for
// concurrent use.
func Normalize(s string) string {
	out, _, err := transform.String(controlStripper(), s)
	if err != nil {
		return s
	}
	return out
}
