package extract

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaces and tabs", "a  \t b", "a b"},
		{"newline runs", "a\n\n\nb", "a\nb"},
		{"whitespace between newlines", "a \n \t\n  b", "a\nb"},
		{"non-breaking space", "a\u00a0 b", "a b"},
		{"trim", "  \n a b \n ", "a b"},
		{"empty", " \n\t ", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := CleanText(test.in); got != test.want {
				t.Fatalf("CleanText(%q) = %q, want %q", test.in, got, test.want)
			}
		})
	}
}

func TestTruncateKeepsShortText(t *testing.T) {
	text := "Short text."
	if got := Truncate(text, 100); got != text {
		t.Fatalf("expected unchanged text, got %q", got)
	}
}

func TestTruncateUnbounded(t *testing.T) {
	text := strings.Repeat("x", 50)
	if got := Truncate(text, 0); got != text {
		t.Fatalf("expected unbounded truncate to keep text, got %q", got)
	}
}

func TestTruncateAtSentenceBoundary(t *testing.T) {
	text := strings.Repeat("a", 89) + ". Tail words"

	got := Truncate(text, 95)
	want := strings.Repeat("a", 89) + "."

	if got != want {
		t.Fatalf("expected cut at sentence end, got %q", got)
	}
}

func TestTruncateHardCutWhenBoundaryTooEarly(t *testing.T) {
	text := "Early. " + strings.Repeat("b", 200)

	got := Truncate(text, 100)
	want := string([]rune(text)[:100]) + "..."

	if got != want {
		t.Fatalf("expected hard cut with ellipsis, got %q", got)
	}
}

func TestTruncateBoundaryMustExceedThreshold(t *testing.T) {
	// Boundary exactly at 80% of the budget does not qualify.
	text := strings.Repeat("c", 80) + "." + strings.Repeat("d", 50)

	got := Truncate(text, 100)

	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected hard cut, got %q", got)
	}
}

func TestTruncateCountsCharactersNotBytes(t *testing.T) {
	text := strings.Repeat("é", 120)

	got := Truncate(text, 100)

	if !utf8.ValidString(got) {
		t.Fatalf("expected valid UTF-8, got %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 103 {
		t.Fatalf("expected 100 characters plus ellipsis, got %d", n)
	}
}

func TestTruncateIsIdempotent(t *testing.T) {
	inputs := []string{
		"Short.",
		strings.Repeat("a", 89) + ". Tail words",
		"Early. " + strings.Repeat("b", 200),
		strings.Repeat("Mixed sentence? Yes! ", 30),
		strings.Repeat("z", 300),
	}

	for _, in := range inputs {
		once := Truncate(in, 100)
		twice := Truncate(once, 100)

		if once != twice {
			t.Fatalf("truncate is not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestTruncateReplacesInvalidUTF8RegardlessOfLength(t *testing.T) {
	short := Truncate("ab\xffc", 10)
	long := Truncate("ab\xffc"+strings.Repeat("x", 20), 10)

	if short != "ab\uFFFDc" {
		t.Fatalf("short = %q, want invalid byte replaced", short)
	}
	if !strings.HasPrefix(long, "ab\uFFFDc") || !utf8.ValidString(long) {
		t.Fatalf("long = %q, want the same replacement", long)
	}
	if Truncate("ab\xffc", 0) != "ab\uFFFDc" {
		t.Fatal("unbounded truncate must sanitize too")
	}
}
