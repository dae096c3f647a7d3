// Package flights queries the Yandex Rasp schedule search API.
package flights

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/m3rciful/geobot/app/adapters/fetch"
	"github.com/m3rciful/geobot/app/dialog"
)

const (
	DefaultEndpoint = "https://api.rasp.yandex.net/v3.0/search/"
	defaultLimit    = 20
)

// Config holds the Rasp settings.
type Config struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key" envconfig:"RASP_API_KEY"`
	Lang     string `yaml:"lang"`
	Limit    int    `yaml:"limit"`
}

// Client implements dialog.FlightScheduleProvider.
type Client struct {
	http     *http.Client
	endpoint string
	apiKey   string
	lang     string
	limit    int
	now      func() time.Time
}

// New builds a schedule client.
func New(httpClient *http.Client, cfg Config) *Client {
	c := &Client{
		http:     httpClient,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		lang:     cfg.Lang,
		limit:    cfg.Limit,
		now:      time.Now,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.lang == "" {
		c.lang = "ru_RU"
	}
	if c.limit <= 0 {
		c.limit = defaultLimit
	}
	return c
}

// Find lists today's flights between two IATA codes, one formatted entry per flight.
func (c *Client) Find(ctx context.Context, originCode, destinationCode string) ([]string, error) {
	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("format", "json")
	q.Set("from", originCode)
	q.Set("to", destinationCode)
	q.Set("system", "iata")
	q.Set("transport_types", "plane")
	q.Set("lang", c.lang)
	q.Set("date", c.now().Format("2006-01-02"))
	q.Set("limit", fmt.Sprint(c.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	body, err := fetch.Do(c.http, req)
	switch code := fetch.StatusCode(err); {
	case code == http.StatusNotFound || code == http.StatusBadRequest:
		return nil, dialog.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("rasp %s-%s: %w", originCode, destinationCode, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("rasp: malformed response")
	}

	var out []string
	gjson.GetBytes(body, "segments").ForEach(func(_, seg gjson.Result) bool {
		out = append(out, formatSegment(seg))
		return true
	})
	return out, nil
}

func formatSegment(seg gjson.Result) string {
	thread := seg.Get("thread")
	var b strings.Builder
	fmt.Fprintf(&b, "Рейс %s %s", thread.Get("number").String(), thread.Get("title").String())
	if carrier := thread.Get("carrier.title").String(); carrier != "" {
		fmt.Fprintf(&b, "\nПеревозчик: %s", carrier)
	}
	if v := thread.Get("vehicle").String(); v != "" {
		fmt.Fprintf(&b, "\nСамолёт: %s", v)
	}
	fmt.Fprintf(&b, "\nОтправление: %s", clock(seg.Get("departure").String()))
	fmt.Fprintf(&b, "\nПрибытие: %s", clock(seg.Get("arrival").String()))
	if d := seg.Get("duration").Int(); d > 0 {
		dur := time.Duration(d) * time.Second
		fmt.Fprintf(&b, "\nВ пути: %d ч %02d мин", int(dur.Hours()), int(dur.Minutes())%60)
	}
	return b.String()
}

// clock renders an RFC 3339 timestamp as local "02.01 15:04".
func clock(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Format("02.01 15:04")
}
