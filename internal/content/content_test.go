package content

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("stitch ", n))
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "only whitespace", text: " \t\n ", want: 0},
		{name: "single word", text: "yarn", want: 1},
		{name: "mixed whitespace", text: "chain\tstitch\n\nslip  stitch", want: 4},
		{name: "punctuation attached", text: "Hello, World!", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WordCount(tt.text); got != tt.want {
				t.Errorf("WordCount(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		name  string
		words int
		want  int
	}{
		{name: "empty body floors at one minute", words: 0, want: 1},
		{name: "one word", words: 1, want: 1},
		{name: "exactly one minute", words: 200, want: 1},
		{name: "just over one minute", words: 201, want: 2},
		{name: "250 words", words: 250, want: 2},
		{name: "exactly two minutes", words: 400, want: 2},
		{name: "long read", words: 1999, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReadingTime(words(tt.words)); got != tt.want {
				t.Errorf("ReadingTime(%d words) = %d, want %d", tt.words, got, tt.want)
			}
		})
	}
}

// TestReadingTime_Monotonic verifies that adding words never lowers the estimate.
func TestReadingTime_Monotonic(t *testing.T) {
	prev := ReadingTime("")
	for n := 1; n <= 1000; n++ {
		got := ReadingTime(words(n))
		if got < prev {
			t.Fatalf("ReadingTime decreased at %d words: %d < %d", n, got, prev)
		}
		if got < 1 {
			t.Fatalf("ReadingTime(%d words) = %d, want >= 1", n, got)
		}
		prev = got
	}
}

func TestExcerpt(t *testing.T) {
	short := "A short pattern note."
	if got := Excerpt(short); got != short {
		t.Errorf("Excerpt(short) = %q, want verbatim", got)
	}

	exact := strings.Repeat("x", MaxExcerptLen)
	if got := Excerpt(exact); got != exact {
		t.Errorf("Excerpt(300 chars) changed the input")
	}

	long := strings.Repeat("abcdefghij", 40)
	got := Excerpt(long)
	if got != long[:MaxExcerptLen] {
		t.Errorf("Excerpt(long) = %q, want first %d chars", got, MaxExcerptLen)
	}
}

// TestExcerpt_Multibyte checks that the cut counts characters, not bytes,
// and never produces invalid UTF-8.
func TestExcerpt_Multibyte(t *testing.T) {
	long := strings.Repeat("ñó", 400)
	got := Excerpt(long)
	if n := utf8.RuneCountInString(got); n != MaxExcerptLen {
		t.Errorf("rune count = %d, want %d", n, MaxExcerptLen)
	}
	if !utf8.ValidString(got) {
		t.Error("excerpt is not valid UTF-8")
	}
	if !strings.HasPrefix(long, got) {
		t.Error("excerpt is not a prefix of the content")
	}
}

func TestExcerpt_NeverExceedsLimit(t *testing.T) {
	for _, n := range []int{0, 1, 299, 300, 301, 5000} {
		got := Excerpt(strings.Repeat("é", n))
		if utf8.RuneCountInString(got) > MaxExcerptLen {
			t.Errorf("Excerpt of %d chars has %d chars", n, utf8.RuneCountInString(got))
		}
	}
}
