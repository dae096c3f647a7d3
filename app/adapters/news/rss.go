// Package news reads headlines for a place from an RSS search feed.
package news

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/m3rciful/geobot/app/dialog"
)

const (
	// DefaultEndpoint is the Google News RSS search feed.
	DefaultEndpoint = "https://news.google.com/rss/search"
	defaultLimit    = 10
	maxBodyRunes    = 600
)

var (
	tagRe   = regexp.MustCompile(`<[^>]*>`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Config holds the feed settings.
type Config struct {
	Endpoint string `yaml:"endpoint"`
	Lang     string `yaml:"lang"`
	Region   string `yaml:"region"`
	Limit    int    `yaml:"limit"`
}

// Feed implements dialog.NewsProvider.
type Feed struct {
	parser   *gofeed.Parser
	endpoint string
	lang     string
	region   string
	limit    int
}

// New builds a feed reader using httpClient for downloads.
func New(httpClient *http.Client, cfg Config) *Feed {
	p := gofeed.NewParser()
	p.Client = httpClient
	p.UserAgent = "geobot"

	f := &Feed{
		parser:   p,
		endpoint: cfg.Endpoint,
		lang:     cfg.Lang,
		region:   cfg.Region,
		limit:    cfg.Limit,
	}
	if f.endpoint == "" {
		f.endpoint = DefaultEndpoint
	}
	if f.lang == "" {
		f.lang = "ru"
	}
	if f.region == "" {
		f.region = "RU"
	}
	if f.limit <= 0 {
		f.limit = defaultLimit
	}
	return f
}

// Fetch returns up to the configured number of items about the location city.
func (f *Feed) Fetch(ctx context.Context, loc dialog.Location) ([]dialog.NewsItem, error) {
	topic := strings.TrimSpace(loc.City)
	if topic == "" {
		topic = strings.TrimSpace(loc.Query)
	}
	if topic == "" {
		return nil, dialog.ErrNotFound
	}

	feed, err := f.parser.ParseURLWithContext(f.searchURL(topic), ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, dialog.ErrNotFound
		}
		return nil, fmt.Errorf("news feed %q: %w", topic, err)
	}

	items := make([]dialog.NewsItem, 0, min(len(feed.Items), f.limit))
	for _, it := range feed.Items {
		if len(items) == f.limit {
			break
		}
		title := clean(it.Title)
		if title == "" || it.Link == "" {
			continue
		}
		body := clean(it.Description)
		if body == title {
			body = ""
		}
		items = append(items, dialog.NewsItem{
			Title: title,
			Body:  truncate(body, maxBodyRunes),
			Link:  it.Link,
		})
	}
	return items, nil
}

func (f *Feed) searchURL(topic string) string {
	q := url.Values{}
	q.Set("q", topic)
	q.Set("hl", f.lang)
	q.Set("gl", f.region)
	q.Set("ceid", f.region+":"+f.lang)
	return f.endpoint + "?" + q.Encode()
}

// clean strips markup and collapses whitespace.
func clean(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
