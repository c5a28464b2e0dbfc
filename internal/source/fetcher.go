package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html/charset"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

	DefaultTimeout = 20 * time.Second

	maxBodyBytes = 10 << 20
)

var (
	ErrUnsupportedContent = errors.New("unsupported content type")
	ErrEmptyFeed          = errors.New("feed has no usable items")
)

type contentKind int

const (
	kindUnknown contentKind = iota
	kindHTML
	kindFeed
)

// Fetcher loads a URL and turns it into an HTML document ready for the
// extractor. Feeds are reduced to their newest item and Telegram post links
// to the post text.
type Fetcher struct {
	client          *http.Client
	feedParser      *gofeed.Parser
	telegramBaseURL string
	log             *slog.Logger
}

func NewFetcher(timeout time.Duration, log *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Fetcher{
		client:          &http.Client{Timeout: timeout},
		feedParser:      gofeed.NewParser(),
		telegramBaseURL: telegramBaseURL,
		log:             log,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	u, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}

	if post, ok := parseTelegramPostURL(u); ok {
		return f.fetchTelegramPost(ctx, post)
	}

	return f.fetch(ctx, u.String(), true)
}

func (f *Fetcher) fetch(ctx context.Context, pageURL string, followFeedLink bool) (*goquery.Document, error) {
	body, contentType, err := f.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	switch detectKind(contentType, body) {
	case kindHTML:
		return parseHTML(body, contentType)
	case kindFeed:
		return f.feedDocument(ctx, pageURL, body, followFeedLink)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContent, contentType)
	}
}

func (f *Fetcher) get(ctx context.Context, pageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/rss+xml,application/atom+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req) //nolint:gosec // URL is user supplied by design of the bot.
	if err != nil {
		return nil, "", fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			f.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"pageURL", pageURL)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	return body, resp.Header.Get("Content-Type"), nil
}

func (f *Fetcher) feedDocument(
	ctx context.Context,
	feedURL string,
	body []byte,
	followLink bool,
) (*goquery.Document, error) {
	parsed, err := f.feedParser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed (URL = %s): %w", feedURL, err)
	}

	item := newestItem(parsed.Items)
	if item == nil {
		return nil, ErrEmptyFeed
	}

	content := strings.TrimSpace(item.Content)
	if content == "" {
		content = strings.TrimSpace(item.Description)
	}

	if content == "" {
		link := strings.TrimSpace(item.Link)
		if link == "" || !followLink {
			return nil, ErrEmptyFeed
		}

		f.log.DebugContext(ctx, "Feed item has no content, following link",
			"feedURL", feedURL,
			"itemURL", link)

		u, err := parseURL(link)
		if err != nil {
			return nil, fmt.Errorf("parse item link: %w", err)
		}

		return f.fetch(ctx, u.String(), false)
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = strings.TrimSpace(parsed.Title)
	}

	return wrapFragment(title, item.Description, content)
}

func (f *Fetcher) fetchTelegramPost(ctx context.Context, post telegramPost) (*goquery.Document, error) {
	body, contentType, err := f.get(ctx, post.embedURL(f.telegramBaseURL))
	if err != nil {
		return nil, fmt.Errorf("fetch Telegram post: %w", err)
	}

	page, err := parseHTML(body, contentType)
	if err != nil {
		return nil, err
	}

	message := page.Find(".tgme_widget_message_text, .tgme_widget_message_caption").First()
	content, err := goquery.OuterHtml(message)
	if err != nil {
		return nil, fmt.Errorf("render post: %w", err)
	}

	title := strings.TrimSpace(page.Find(".tgme_widget_message_owner_name").First().Text())
	if title == "" {
		title = post.slug
	}

	return wrapFragment(title, "", content)
}

// wrapFragment builds a document whose article is the given HTML fragment so
// the extractor picks it up like any article page.
func wrapFragment(title, description, fragment string) (*goquery.Document, error) {
	b := strings.Builder{}
	b.WriteString("<html><head><title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title>")
	if description = strings.TrimSpace(description); description != "" {
		b.WriteString(`<meta name="description" content="`)
		b.WriteString(html.EscapeString(description))
		b.WriteString(`">`)
	}
	b.WriteString("</head><body><article>")
	b.WriteString(fragment)
	b.WriteString("</article></body></html>")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(b.String()))
	if err != nil {
		return nil, fmt.Errorf("create document from reader: %w", err)
	}

	return doc, nil
}

func parseHTML(body []byte, contentType string) (*goquery.Document, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("create document from reader: %w", err)
	}

	return doc, nil
}

// newestItem picks the most recently published or updated item. The first
// item wins ties and undated feeds.
func newestItem(items []*gofeed.Item) *gofeed.Item {
	var newest *gofeed.Item
	var newestAt time.Time

	for _, item := range items {
		if item == nil {
			continue
		}

		at := itemTime(item)
		if newest == nil || at.After(newestAt) {
			newest = item
			newestAt = at
		}
	}

	return newest
}

func itemTime(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return *item.PublishedParsed
	case item.UpdatedParsed != nil:
		return *item.UpdatedParsed
	default:
		return time.Time{}
	}
}

func detectKind(contentType string, body []byte) contentKind {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}

	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return kindHTML
	case "application/rss+xml", "application/atom+xml", "application/feed+json":
		return kindFeed
	case "application/xml", "text/xml", "application/json", "text/plain", "application/octet-stream", "":
		if gofeed.DetectFeedType(bytes.NewReader(body)) != gofeed.FeedTypeUnknown {
			return kindFeed
		}
		if looksLikeHTML(body) {
			return kindHTML
		}
	}

	return kindUnknown
}

func looksLikeHTML(body []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(body[:min(len(body), 512)]))

	return bytes.HasPrefix(head, []byte("<!doctype html")) ||
		bytes.HasPrefix(head, []byte("<html")) ||
		bytes.Contains(head, []byte("<body"))
}

func parseURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errors.New("URL is empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("URL has no host: %q", rawURL)
	}

	return u, nil
}
