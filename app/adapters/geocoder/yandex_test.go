package geocoder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/geobot/app/dialog"
)

const parisResponse = `{
  "response": {
    "GeoObjectCollection": {
      "metaDataProperty": {"GeocoderResponseMetaData": {"request": "Париж", "found": "1", "results": "1"}},
      "featureMember": [{
        "GeoObject": {
          "metaDataProperty": {"GeocoderMetaData": {
            "kind": "locality",
            "text": "Франция, Париж",
            "Address": {
              "country_code": "FR",
              "formatted": "Франция, Париж",
              "Components": [
                {"kind": "country", "name": "Франция"},
                {"kind": "province", "name": "Иль-де-Франс"},
                {"kind": "province", "name": "Париж"},
                {"kind": "locality", "name": "Париж"}
              ]
            }
          }},
          "name": "Париж",
          "description": "Франция",
          "boundedBy": {"Envelope": {"lowerCorner": "2.224122 48.815576", "upperCorner": "2.469760 48.902156"}},
          "Point": {"pos": "2.351499 48.856610"}
        }
      }]
    }
  }
}`

const emptyResponse = `{"response":{"GeoObjectCollection":{"metaDataProperty":{"GeocoderResponseMetaData":{"request":"Атлантида","found":"0","results":"1"}},"featureMember":[]}}}`

func newServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "key", r.URL.Query().Get("apikey"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookup_Found(t *testing.T) {
	srv := newServer(t, parisResponse, http.StatusOK)
	c := New(srv.Client(), Config{Endpoint: srv.URL, APIKey: "key"})

	loc, err := c.Lookup(context.Background(), "Париж")
	require.NoError(t, err)
	assert.Equal(t, "Париж", loc.City)
	assert.Equal(t, "FR", loc.CountryCode)
	assert.InDelta(t, 2.351499, loc.Point.Lon, 1e-6)
	assert.InDelta(t, 48.856610, loc.Point.Lat, 1e-6)
	assert.InDelta(t, 2.224122, loc.BoundingBox.Lower.Lon, 1e-6)
	assert.InDelta(t, 48.902156, loc.BoundingBox.Upper.Lat, 1e-6)
	assert.NotEmpty(t, loc.Raw)
}

func TestLookup_NotFound(t *testing.T) {
	srv := newServer(t, emptyResponse, http.StatusOK)
	c := New(srv.Client(), Config{Endpoint: srv.URL, APIKey: "key"})

	_, err := c.Lookup(context.Background(), "Атлантида")
	assert.ErrorIs(t, err, dialog.ErrNotFound)
}

func TestLookup_Malformed(t *testing.T) {
	srv := newServer(t, `<html>`, http.StatusOK)
	c := New(srv.Client(), Config{Endpoint: srv.URL, APIKey: "key"})

	_, err := c.Lookup(context.Background(), "Париж")
	require.Error(t, err)
	assert.NotErrorIs(t, err, dialog.ErrNotFound)
}

func TestLookup_ServerError(t *testing.T) {
	srv := newServer(t, `{"error":"forbidden"}`, http.StatusForbidden)
	c := New(srv.Client(), Config{Endpoint: srv.URL, APIKey: "key"})

	_, err := c.Lookup(context.Background(), "Париж")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestCityOf_FallsBackToProvince(t *testing.T) {
	body := `{"response":{"GeoObjectCollection":{"metaDataProperty":{"GeocoderResponseMetaData":{"found":"1"}},"featureMember":[{"GeoObject":{"name":"Подмосковье","metaDataProperty":{"GeocoderMetaData":{"Address":{"country_code":"RU","Components":[{"kind":"country","name":"Россия"},{"kind":"province","name":"Московская область"}]}}},"boundedBy":{"Envelope":{"lowerCorner":"35 54","upperCorner":"40 57"}},"Point":{"pos":"37.5 55.5"}}}]}}}`
	loc, err := parse("Подмосковье", []byte(body))
	require.NoError(t, err)
	assert.Equal(t, "Московская область", loc.City)
}

func TestLookup_EmptyQuery(t *testing.T) {
	c := New(nil, Config{})
	_, err := c.Lookup(context.Background(), "  ")
	assert.ErrorIs(t, err, dialog.ErrNotFound)
}
