package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	ellipsis              = "..."
	sentenceBoundaryRatio = 0.8
)

var (
	spaceRunRe   = regexp.MustCompile(`[ \t\f\r\v\x{00A0}]+`)
	newlineRunRe = regexp.MustCompile(` ?\n[ \n]*`)
)

// CleanText collapses runs of horizontal whitespace to one space and runs of
// line breaks to one newline, then trims the result.
func CleanText(text string) string {
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = newlineRunRe.ReplaceAllString(text, "\n")

	return strings.TrimSpace(text)
}

// Truncate bounds text to maxChars characters. It prefers to cut right after
// the last sentence end found past 80% of the budget and otherwise cuts hard
// and appends an ellipsis. A non-positive maxChars means unbounded. Invalid
// UTF-8 is replaced with U+FFFD whatever the length.
func Truncate(text string, maxChars int) string {
	text = strings.ToValidUTF8(text, string(utf8.RuneError))

	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	cut := []rune(text)[:maxChars]

	lastSentenceEnd := -1
	for i := len(cut) - 1; i >= 0; i-- {
		if isSentenceEnd(cut[i]) {
			lastSentenceEnd = i
			break
		}
	}

	if float64(lastSentenceEnd) > float64(maxChars)*sentenceBoundaryRatio {
		return string(cut[:lastSentenceEnd+1])
	}

	return string(cut) + ellipsis
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}
