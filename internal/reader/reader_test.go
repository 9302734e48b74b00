package reader

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"simple", "hello world", []string{"hello", "world"}},
		{"newlines", "line one\nline two\r\n", []string{"line", "one", "line", "two"}},
		{"runs of whitespace", "  a \t\t b   c  ", []string{"a", "b", "c"}},
		{"punctuation kept", "Hello, world!", []string{"Hello,", "world!"}},
		{"empty", "", nil},
		{"only whitespace", " \n\t ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text).Words()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenizeIdempotent(t *testing.T) {
	for _, text := range []string{"a  b\nc", "\n\nx\ty  z ", "", "single"} {
		once := Tokenize(text)
		twice := Tokenize(once.String())
		if !reflect.DeepEqual(once.Words(), twice.Words()) {
			t.Errorf("Tokenize not idempotent for %q: %q vs %q", text, once.Words(), twice.Words())
		}
	}
}

func TestSequenceAccess(t *testing.T) {
	s := Tokenize("zero one two three")
	if s.Len() != 4 {
		t.Fatalf("Len() = %d", s.Len())
	}
	if s.Word(2) != "two" || s.Word(-1) != "" || s.Word(4) != "" {
		t.Errorf("Word() out of expectations")
	}
	if got := s.Slice(2, 10); !reflect.DeepEqual(got, []string{"two", "three"}) {
		t.Errorf("Slice(2,10) = %q", got)
	}
	if got := s.Slice(3, 3); got != nil {
		t.Errorf("Slice(3,3) = %q, want nil", got)
	}

	words := s.Words()
	words[0] = "mutated"
	if s.Word(0) != "zero" {
		t.Error("Words() exposed internal storage")
	}
}

func TestGetORPPosition(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"", 0},
		{"a", 0},
		{"an", 1},
		{"hello", 1},
		{"reading", 2},
		{"extraordinary", 4},
		{"café", 1},
		{"naïveté", 2},
	}
	for _, tt := range tests {
		if got := GetORPPosition(tt.word); got != tt.want {
			t.Errorf("GetORPPosition(%q) = %d, want %d", tt.word, got, tt.want)
		}
	}
}

func TestSplitORP(t *testing.T) {
	tests := []struct {
		word                 string
		before, focus, after string
	}{
		{"", "", "", ""},
		{"a", "", "a", ""},
		{"hello", "h", "e", "llo"},
		{"über", "ü", "b", "er"},
		{"reading", "re", "a", "ding"},
	}
	for _, tt := range tests {
		b, f, a := SplitORP(tt.word)
		if b != tt.before || f != tt.focus || a != tt.after {
			t.Errorf("SplitORP(%q) = %q %q %q", tt.word, b, f, a)
		}
	}
}
