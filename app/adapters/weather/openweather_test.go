package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/geobot/app/dialog"
)

const currentJSON = `{
  "weather": [{"id": 800, "main": "Clear", "description": "ясно"}],
  "main": {"temp": 21.6, "feels_like": 20.9, "pressure": 1013, "humidity": 48},
  "wind": {"speed": 3.4},
  "name": "Paris"
}`

const forecastJSON = `{
  "city": {"name": "Paris", "timezone": 7200},
  "cnt": 2,
  "list": [
    {"dt": 1717236000, "temp": {"day": 22.4, "night": 14.1}, "weather": [{"description": "небольшой дождь"}]},
    {"dt": 1717322400, "temp": {"day": -0.4, "night": -3.6}, "weather": [{"description": "снег"}]}
  ]
}`

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.Client(), Config{Endpoint: srv.URL, APIKey: "secret"})
}

func TestCurrent(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "Париж,FR", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		_, _ = w.Write([]byte(currentJSON))
	})

	got, err := c.Current(context.Background(), "Париж", "FR")
	require.NoError(t, err)
	assert.Equal(t, "Погода в городе Париж сейчас: ясно\n"+
		"Температура: +22°C (ощущается как +21°C)\n"+
		"Влажность: 48%\n"+
		"Давление: 760 мм рт. ст.\n"+
		"Ветер: 3.4 м/с", got)
}

func TestForecast(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast/daily", r.URL.Path)
		assert.Equal(t, "6", r.URL.Query().Get("cnt"))
		_, _ = w.Write([]byte(forecastJSON))
	})

	got, err := c.Forecast(context.Background(), "Париж", "FR", 6)
	require.NoError(t, err)
	assert.Equal(t, "Прогноз погоды в городе Париж:\n"+
		"01.06: небольшой дождь, днём +22°C, ночью +14°C\n"+
		"02.06: снег, днём 0°C, ночью -4°C", got)
}

func TestCityNotFound(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	})

	_, err := c.Current(context.Background(), "Атлантида", "")
	assert.ErrorIs(t, err, dialog.ErrNotFound)
}

func TestUnauthorized(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Forecast(context.Background(), "Париж", "FR", 6)
	require.Error(t, err)
	assert.NotErrorIs(t, err, dialog.ErrNotFound)
}
