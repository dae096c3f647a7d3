// Package geocoder resolves free-form place names with the Yandex Geocoder API.
package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/m3rciful/geobot/app/adapters/fetch"
	"github.com/m3rciful/geobot/app/dialog"
)

const DefaultEndpoint = "https://geocode-maps.yandex.ru/1.x/"

// Config holds the geocoder settings.
type Config struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key" envconfig:"GEOCODER_API_KEY"`
	Lang     string `yaml:"lang"`
}

// Client implements dialog.Geocoder.
type Client struct {
	http     *http.Client
	endpoint string
	apiKey   string
	lang     string
}

// New builds a geocoder client.
func New(httpClient *http.Client, cfg Config) *Client {
	c := &Client{
		http:     httpClient,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		lang:     cfg.Lang,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.lang == "" {
		c.lang = "ru_RU"
	}
	return c
}

// Lookup returns the best match for query.
func (c *Client) Lookup(ctx context.Context, query string) (dialog.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return dialog.Location{}, dialog.ErrNotFound
	}

	q := url.Values{}
	q.Set("geocode", query)
	q.Set("format", "json")
	q.Set("lang", c.lang)
	q.Set("results", "1")
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return dialog.Location{}, err
	}
	body, err := fetch.Do(c.http, req)
	if err != nil {
		return dialog.Location{}, fmt.Errorf("geocode %q: %w", query, err)
	}
	return parse(query, body)
}

func parse(query string, body []byte) (dialog.Location, error) {
	if !gjson.ValidBytes(body) {
		return dialog.Location{}, errors.New("geocoder: malformed response")
	}
	collection := gjson.GetBytes(body, "response.GeoObjectCollection")
	if !collection.Exists() {
		return dialog.Location{}, errors.New("geocoder: missing GeoObjectCollection")
	}
	if collection.Get("metaDataProperty.GeocoderResponseMetaData.found").Int() == 0 {
		return dialog.Location{}, dialog.ErrNotFound
	}
	obj := collection.Get("featureMember.0.GeoObject")
	if !obj.Exists() {
		return dialog.Location{}, dialog.ErrNotFound
	}

	point, err := parsePos(obj.Get("Point.pos").String())
	if err != nil {
		return dialog.Location{}, fmt.Errorf("geocoder: point: %w", err)
	}
	lower, err := parsePos(obj.Get("boundedBy.Envelope.lowerCorner").String())
	if err != nil {
		return dialog.Location{}, fmt.Errorf("geocoder: lower corner: %w", err)
	}
	upper, err := parsePos(obj.Get("boundedBy.Envelope.upperCorner").String())
	if err != nil {
		return dialog.Location{}, fmt.Errorf("geocoder: upper corner: %w", err)
	}

	address := obj.Get("metaDataProperty.GeocoderMetaData.Address")
	return dialog.Location{
		Query:       query,
		City:        cityOf(address, obj.Get("name").String()),
		CountryCode: address.Get("country_code").String(),
		BoundingBox: dialog.BoundingBox{Lower: lower, Upper: upper},
		Point:       point,
		Raw:         json.RawMessage(obj.Raw),
	}, nil
}

// cityOf prefers the locality component, then the last province, then the object name.
func cityOf(address gjson.Result, fallback string) string {
	var locality, province string
	address.Get("Components").ForEach(func(_, comp gjson.Result) bool {
		switch comp.Get("kind").String() {
		case "locality":
			if locality == "" {
				locality = comp.Get("name").String()
			}
		case "province":
			province = comp.Get("name").String()
		}
		return true
	})
	switch {
	case locality != "":
		return locality
	case province != "":
		return province
	}
	return fallback
}

// parsePos reads a "lon lat" pair.
func parsePos(s string) (dialog.Point, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return dialog.Point{}, fmt.Errorf("invalid position %q", s)
	}
	lon, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return dialog.Point{}, err
	}
	lat, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return dialog.Point{}, err
	}
	return dialog.Point{Lon: lon, Lat: lat}, nil
}
