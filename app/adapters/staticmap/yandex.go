// Package staticmap builds Yandex Static Maps image URLs.
package staticmap

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/m3rciful/geobot/app/dialog"
)

const DefaultEndpoint = "https://static-maps.yandex.ru/1.x/"

// Renderer implements dialog.MapRenderer.
type Renderer struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key" envconfig:"STATIC_MAP_API_KEY"`
	Lang     string `yaml:"lang"`
}

// RenderURL returns the image URL covering the location bounding box with a
// marker on the location point.
func (r Renderer) RenderURL(loc dialog.Location, layer dialog.MapLayer) (string, error) {
	switch layer {
	case dialog.LayerMap, dialog.LayerSatellite, dialog.LayerHybrid:
	case "":
		layer = dialog.LayerMap
	default:
		return "", fmt.Errorf("staticmap: unsupported layer %q", layer)
	}

	endpoint := r.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	lang := r.Lang
	if lang == "" {
		lang = "ru_RU"
	}

	q := url.Values{}
	q.Set("l", string(layer))
	q.Set("lang", lang)
	bbox := loc.BoundingBox
	if bbox.Lower != bbox.Upper {
		q.Set("bbox", pair(bbox.Lower)+"~"+pair(bbox.Upper))
	} else {
		q.Set("ll", pair(loc.Point))
		q.Set("z", "12")
	}
	q.Set("pt", pair(loc.Point)+",pm2rdm")
	if r.APIKey != "" {
		q.Set("apikey", r.APIKey)
	}
	return endpoint + "?" + q.Encode(), nil
}

func pair(p dialog.Point) string {
	return strconv.FormatFloat(p.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
}
