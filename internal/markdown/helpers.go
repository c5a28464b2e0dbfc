package markdown

import "strings"

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const mdV2SpecialChars = `_*[]()~>#+-=|{}.!` + "`\\"

var mdV2SpecialCharLookup = func() [256]bool {
	var m [256]bool
	for _, c := range []byte(mdV2SpecialChars) {
		m[c] = true
	}
	return m
}()

func EscapeV2(input string) string {
	return escape(input, &mdV2SpecialCharLookup)
}

var codeSpecialCharLookup = func() [256]bool {
	var m [256]bool
	m['`'] = true
	m['\\'] = true
	return m
}()

// Code wraps input in an inline code entity.
func Code(input string) string {
	return "`" + escape(input, &codeSpecialCharLookup) + "`"
}

func Bold(input string) string {
	return "*" + EscapeV2(input) + "*"
}

func escape(input string, lookup *[256]bool) string {
	charsToEscape := 0
	for i := range len(input) {
		if lookup[input[i]] {
			charsToEscape++
		}
	}
	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := range len(input) {
		c := input[i]
		if lookup[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}
