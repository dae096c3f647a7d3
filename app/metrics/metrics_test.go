package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/geobot/app/dialog"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_RecordsTransitionsAndCalls(t *testing.T) {
	m := New(func(context.Context) (int, error) { return 4, nil })
	m.Transition(dialog.StateIdle, dialog.StateLocation)
	m.Transition(dialog.StateIdle, dialog.StateLocation)
	m.AdapterCall("geocoder", "ok", 120*time.Millisecond)

	body := scrape(t, NewRouter(m, nil))
	assert.Contains(t, body, `geobot_dialog_transitions_total{from="idle",to="location_handler"} 2`)
	assert.Contains(t, body, `geobot_adapter_call_duration_seconds_count{adapter="geocoder",outcome="ok"} 1`)
	assert.Contains(t, body, `geobot_active_sessions 4`)
}

func TestMetrics_ActiveSessionsError(t *testing.T) {
	m := New(func(context.Context) (int, error) { return 0, errors.New("down") })
	assert.Contains(t, scrape(t, m.Handler()), `geobot_active_sessions -1`)
}

func TestHealthz(t *testing.T) {
	m := New(nil)
	failing := false
	h := NewRouter(m, []Check{
		{Name: "redis", Probe: func(context.Context) error {
			if failing {
				return errors.New("connection refused")
			}
			return nil
		}},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	failing = true
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var report healthReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, "fail", report.Status)
	assert.Equal(t, "connection refused", report.Checks["redis"])
}

func TestServer_RunStopsWithContext(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	s := NewServer(addr, NewRouter(New(nil), nil))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
