package source

import (
	"regexp"
	"strings"

	"mvdan.cc/xurls/v2"

	"pagegist/internal/extract"
)

var httpURLRe = mustURLRegexp()

func mustURLRegexp() *regexp.Regexp {
	re, err := xurls.StrictMatchingScheme(`https?://`)
	if err != nil {
		panic(err)
	}
	return re
}

// FindURLs returns the distinct http(s) URLs of text in order of appearance.
func FindURLs(text string) []string {
	found := httpURLRe.FindAllString(text, -1)

	urls := make([]string, 0, len(found))
	seen := make(map[string]struct{}, len(found))
	for _, u := range found {
		u = strings.TrimSpace(u)
		if _, ok := seen[u]; ok || u == "" {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	return urls
}

// IsLinkMessage reports whether text is mostly a link, i.e. the words around
// the URLs are too few to summarize on their own.
func IsLinkMessage(text string) bool {
	if len(FindURLs(text)) == 0 {
		return false
	}

	rest := strings.TrimSpace(httpURLRe.ReplaceAllString(text, ""))

	return len([]rune(rest)) < extract.MinContentChars
}
