package source

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	telegramHost    = "t.me"
	telegramBaseURL = "https://t.me"

	minPartsForTelegramPost       = 2
	minPartsForTelegramPreviewURL = 3
)

var telegramSlugRe = regexp.MustCompile(`^\w{5,32}$`)

type telegramPost struct {
	slug string
	id   int64
}

// parseTelegramPostURL recognizes t.me/<channel>/<id> and
// t.me/s/<channel>/<id> links to public channel posts.
func parseTelegramPostURL(u *url.URL) (telegramPost, bool) {
	if !strings.EqualFold(u.Host, telegramHost) {
		return telegramPost{}, false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) > 0 && parts[0] == "s" {
		if len(parts) < minPartsForTelegramPreviewURL {
			return telegramPost{}, false
		}
		parts = parts[1:]
	}
	if len(parts) != minPartsForTelegramPost {
		return telegramPost{}, false
	}

	slug := strings.TrimSpace(parts[0])
	if !telegramSlugRe.MatchString(slug) {
		return telegramPost{}, false
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return telegramPost{}, false
	}

	return telegramPost{slug: slug, id: id}, true
}

func (p telegramPost) embedURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/" + p.slug + "/" + strconv.FormatInt(p.id, 10) + "?embed=1&mode=tme"
}
