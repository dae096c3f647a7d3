package dialog

import (
	"context"
	"encoding/json"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// BoundingBox is the envelope returned by the geocoder for a toponym.
type BoundingBox struct {
	Lower Point `json:"lower"`
	Upper Point `json:"upper"`
}

// Location is a resolved geocoder result.
type Location struct {
	Query       string          `json:"query"`
	City        string          `json:"city"`
	CountryCode string          `json:"country_code"`
	BoundingBox BoundingBox     `json:"bbox"`
	Point       Point           `json:"point"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// NewsItem is a single headline shown while browsing news.
type NewsItem struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Link  string `json:"link"`
}

// Airport is an entry of the airport directory.
type Airport struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// MapLayer selects the static map rendering mode.
type MapLayer string

const (
	LayerMap       MapLayer = "map"
	LayerSatellite MapLayer = "sat"
	LayerHybrid    MapLayer = "sat,skl"
)

// Geocoder resolves free-form text to a location. Unknown places yield ErrNotFound.
type Geocoder interface {
	Lookup(ctx context.Context, query string) (Location, error)
}

// MapRenderer builds a static map image URL for a location.
type MapRenderer interface {
	RenderURL(loc Location, layer MapLayer) (string, error)
}

// NewsProvider fetches recent news for a location. An empty slice is a valid answer.
type NewsProvider interface {
	Fetch(ctx context.Context, loc Location) ([]NewsItem, error)
}

// WeatherProvider renders human-readable weather reports.
type WeatherProvider interface {
	Current(ctx context.Context, city, countryCode string) (string, error)
	Forecast(ctx context.Context, city, countryCode string, days int) (string, error)
}

// AirportDirectory lists the airports serving a city.
type AirportDirectory interface {
	Lookup(ctx context.Context, city string) ([]Airport, error)
}

// FlightScheduleProvider finds flights between two airports given by code.
type FlightScheduleProvider interface {
	Find(ctx context.Context, originCode, destinationCode string) ([]string, error)
}

// SpeechTranscriber converts a voice message into text.
type SpeechTranscriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Adapters groups the external services used by the engine.
type Adapters struct {
	Geocoder Geocoder
	Maps     MapRenderer
	News     NewsProvider
	Weather  WeatherProvider
	Airports AirportDirectory
	Flights  FlightScheduleProvider
	// Transcriber is optional; without it voice messages are not recognised.
	Transcriber SpeechTranscriber
}

func (a Adapters) validate() error {
	switch {
	case a.Geocoder == nil:
		return errMissingAdapter("geocoder")
	case a.Maps == nil:
		return errMissingAdapter("maps")
	case a.News == nil:
		return errMissingAdapter("news")
	case a.Weather == nil:
		return errMissingAdapter("weather")
	case a.Airports == nil:
		return errMissingAdapter("airports")
	case a.Flights == nil:
		return errMissingAdapter("flights")
	}
	return nil
}
