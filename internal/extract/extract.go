package extract

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	// PageMaxChars bounds page-level extraction. Stages apply their own
	// smaller budgets later.
	PageMaxChars = 15000

	// MinContentChars is the floor a content container must exceed to win
	// over the body fallback.
	MinContentChars = 100
)

var (
	contentSelectors = []string{
		"article",
		"main",
		`[role="main"]`,
		".post-content",
		".article-content",
		".entry-content",
		".content",
		"#content",
		".main-content",
	}

	noiseSelector = strings.Join([]string{
		"script",
		"style",
		"noscript",
		"template",
		"nav",
		"header",
		"footer",
		"aside",
		".advertisement",
		".ads",
		".sidebar",
		".menu",
		".navigation",
	}, ", ")

	hiddenElements = map[string]bool{
		"script":   true,
		"style":    true,
		"noscript": true,
		"template": true,
		"head":     true,
	}

	blockElements = map[string]bool{
		"address": true, "article": true, "aside": true, "blockquote": true,
		"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
		"figcaption": true, "figure": true, "footer": true, "form": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"header": true, "hr": true, "li": true, "main": true, "nav": true,
		"ol": true, "p": true, "pre": true, "section": true, "table": true,
		"tr": true, "ul": true,
	}
)

// FromReader parses an HTML document.
func FromReader(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("create document from reader: %w", err)
	}

	return doc, nil
}

// Extract returns the readable text of doc. Content containers are tried in
// priority order and the first one with more than MinContentChars characters
// wins; otherwise the body without structural noise is used. The document is
// never modified.
func Extract(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}

	for _, selector := range contentSelectors {
		match := doc.Find(selector).First()
		if match.Length() == 0 {
			continue
		}

		text := CleanText(Text(match))
		if utf8.RuneCountInString(text) > MinContentChars {
			return Truncate(text, PageMaxChars)
		}
	}

	root := doc.Find("body").First()
	if root.Length() == 0 {
		root = doc.Selection
	}

	body := root.Clone()
	body.Find(noiseSelector).Remove()

	return Truncate(CleanText(Text(body)), PageMaxChars)
}

// Text renders the visible text of the selection the way a browser lays it
// out: block elements and line breaks start new lines, script-like elements
// are skipped.
func Text(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		renderText(&b, n)
	}

	return b.String()
}

func renderText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if hiddenElements[n.Data] || hasAttr(n, "hidden") {
			return
		}
		if n.Data == "br" {
			b.WriteByte('\n')
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		b.WriteByte('\n')
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(b, c)
	}

	if block {
		b.WriteByte('\n')
	}
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}

	return false
}
