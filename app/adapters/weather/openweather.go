// Package weather renders OpenWeatherMap reports as chat-ready text.
package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/m3rciful/geobot/app/adapters/fetch"
	"github.com/m3rciful/geobot/app/dialog"
)

const DefaultEndpoint = "https://api.openweathermap.org/data/2.5"

// Config holds the OpenWeatherMap settings.
type Config struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key" envconfig:"WEATHER_API_KEY"`
	Lang     string `yaml:"lang"`
}

// Client implements dialog.WeatherProvider.
type Client struct {
	http     *http.Client
	endpoint string
	apiKey   string
	lang     string
}

// New builds a weather client.
func New(httpClient *http.Client, cfg Config) *Client {
	c := &Client{
		http:     httpClient,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		lang:     cfg.Lang,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.lang == "" {
		c.lang = "ru"
	}
	return c
}

// Current describes the weather right now.
func (c *Client) Current(ctx context.Context, city, countryCode string) (string, error) {
	body, err := c.get(ctx, "/weather", city, countryCode, nil)
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(body) {
		return "", errors.New("weather: malformed response")
	}
	r := gjson.ParseBytes(body)
	main := r.Get("main")
	if !main.Exists() {
		return "", errors.New("weather: missing main block")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Погода в городе %s сейчас: %s\n", city, r.Get("weather.0.description").String())
	fmt.Fprintf(&b, "Температура: %s (ощущается как %s)\n", celsius(main.Get("temp").Float()), celsius(main.Get("feels_like").Float()))
	fmt.Fprintf(&b, "Влажность: %d%%\n", main.Get("humidity").Int())
	fmt.Fprintf(&b, "Давление: %d мм рт. ст.\n", hpaToMmHg(main.Get("pressure").Float()))
	fmt.Fprintf(&b, "Ветер: %.1f м/с", r.Get("wind.speed").Float())
	return b.String(), nil
}

// Forecast describes the daily forecast for the given number of days.
func (c *Client) Forecast(ctx context.Context, city, countryCode string, days int) (string, error) {
	if days <= 0 {
		days = 1
	}
	extra := url.Values{}
	extra.Set("cnt", fmt.Sprint(days))
	body, err := c.get(ctx, "/forecast/daily", city, countryCode, extra)
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(body) {
		return "", errors.New("weather: malformed response")
	}
	list := gjson.GetBytes(body, "list").Array()
	if len(list) == 0 {
		return "", dialog.ErrNotFound
	}
	offset := time.Duration(gjson.GetBytes(body, "city.timezone").Int()) * time.Second

	var b strings.Builder
	fmt.Fprintf(&b, "Прогноз погоды в городе %s:", city)
	for _, day := range list {
		date := time.Unix(day.Get("dt").Int(), 0).UTC().Add(offset)
		fmt.Fprintf(&b, "\n%s: %s, днём %s, ночью %s",
			date.Format("02.01"),
			day.Get("weather.0.description").String(),
			celsius(day.Get("temp.day").Float()),
			celsius(day.Get("temp.night").Float()),
		)
	}
	return b.String(), nil
}

func (c *Client) get(ctx context.Context, path, city, countryCode string, extra url.Values) ([]byte, error) {
	q := url.Values{}
	place := city
	if countryCode != "" {
		place += "," + countryCode
	}
	q.Set("q", place)
	q.Set("units", "metric")
	q.Set("lang", c.lang)
	q.Set("appid", c.apiKey)
	for k, v := range extra {
		q[k] = v
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	body, err := fetch.Do(c.http, req)
	if fetch.StatusCode(err) == http.StatusNotFound {
		return nil, dialog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("weather %s %q: %w", path, place, err)
	}
	return body, nil
}

func celsius(v float64) string {
	n := int(math.Round(v))
	if n > 0 {
		return fmt.Sprintf("+%d°C", n)
	}
	return fmt.Sprintf("%d°C", n)
}

func hpaToMmHg(hpa float64) int {
	return int(math.Round(hpa * 0.750062))
}
