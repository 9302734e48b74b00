// Package reader provides the tokenizer and the paced reveal engine used to
// present text word by word (RSVP) or as a moving highlight.
package reader

import "strings"

// Sequence is an immutable, 0-indexed list of words.
type Sequence struct {
	words []string
}

// Tokenize splits text into words. Newlines and any run of whitespace act as
// a single separator and leading or trailing whitespace is ignored, so
// Tokenize(s.String()) equals s.
func Tokenize(text string) Sequence {
	return Sequence{words: strings.Fields(text)}
}

// Len returns the number of words.
func (s Sequence) Len() int { return len(s.words) }

// Word returns the word at i, or "" when i is out of range.
func (s Sequence) Word(i int) string {
	if i < 0 || i >= len(s.words) {
		return ""
	}
	return s.words[i]
}

// Slice returns a copy of words [start, end), clipped to the sequence bounds.
func (s Sequence) Slice(start, end int) []string {
	start = max(start, 0)
	end = min(end, len(s.words))
	if start >= end {
		return nil
	}
	out := make([]string, end-start)
	copy(out, s.words[start:end])
	return out
}

// Words returns a copy of all words.
func (s Sequence) Words() []string {
	return s.Slice(0, len(s.words))
}

// String joins the words with single spaces.
func (s Sequence) String() string {
	return strings.Join(s.words, " ")
}
