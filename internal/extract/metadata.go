package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Metadata struct {
	Title       string
	Description string
}

func ReadMetadata(doc *goquery.Document) Metadata {
	if doc == nil {
		return Metadata{}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = metaContent(doc, "meta[property='og:title']")
	}

	description := metaContent(doc, "meta[name='description']")
	if description == "" {
		description = metaContent(doc, "meta[property='og:description']")
	}

	return Metadata{
		Title:       CleanText(title),
		Description: CleanText(description),
	}
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")

	return strings.TrimSpace(content)
}
