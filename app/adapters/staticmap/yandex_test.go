package staticmap

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/geobot/app/dialog"
)

var paris = dialog.Location{
	City:  "Париж",
	Point: dialog.Point{Lon: 2.3515, Lat: 48.8566},
	BoundingBox: dialog.BoundingBox{
		Lower: dialog.Point{Lon: 2.2241, Lat: 48.8156},
		Upper: dialog.Point{Lon: 2.4698, Lat: 48.9022},
	},
}

func TestRenderURL(t *testing.T) {
	raw, err := Renderer{}.RenderURL(paris, dialog.LayerHybrid)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "static-maps.yandex.ru", u.Host)
	q := u.Query()
	assert.Equal(t, "sat,skl", q.Get("l"))
	assert.Equal(t, "2.2241,48.8156~2.4698,48.9022", q.Get("bbox"))
	assert.Equal(t, "2.3515,48.8566,pm2rdm", q.Get("pt"))
}

func TestRenderURL_PointOnly(t *testing.T) {
	loc := dialog.Location{Point: dialog.Point{Lon: 37.6, Lat: 55.7}}
	raw, err := Renderer{Endpoint: "https://maps.test/", APIKey: "k"}.RenderURL(loc, "")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "map", u.Query().Get("l"))
	assert.Equal(t, "37.6,55.7", u.Query().Get("ll"))
	assert.Equal(t, "k", u.Query().Get("apikey"))
}

func TestRenderURL_UnknownLayer(t *testing.T) {
	_, err := Renderer{}.RenderURL(paris, dialog.MapLayer("trf"))
	assert.Error(t, err)
}
