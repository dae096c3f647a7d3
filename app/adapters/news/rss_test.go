package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/geobot/app/dialog"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>"Казань" - Google Новости</title>
    <link>https://news.google.com</link>
    <item>
      <title>В Казани открылся новый мост</title>
      <link>https://news.example/1</link>
      <description>&lt;a href="https://news.example/1"&gt;В Казани открылся новый мост&lt;/a&gt; &lt;font&gt;Газета&lt;/font&gt;</description>
    </item>
    <item>
      <title>Погода в Казани</title>
      <link>https://news.example/2</link>
      <description>Синоптики обещают снег</description>
    </item>
    <item>
      <title></title>
      <link>https://news.example/3</link>
    </item>
    <item>
      <title>Третья новость</title>
      <link>https://news.example/4</link>
      <description>Текст</description>
    </item>
  </channel>
</rss>`

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Казань", r.URL.Query().Get("q"))
		assert.Equal(t, "RU:ru", r.URL.Query().Get("ceid"))
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	f := New(srv.Client(), Config{Endpoint: srv.URL, Limit: 2})
	items, err := f.Fetch(context.Background(), dialog.Location{City: "Казань"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "В Казани открылся новый мост", items[0].Title)
	assert.Equal(t, "В Казани открылся новый мост Газета", items[0].Body)
	assert.Equal(t, "https://news.example/1", items[0].Link)
	assert.Equal(t, "Синоптики обещают снег", items[1].Body)
}

func TestFetch_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>x</title></channel></rss>`))
	}))
	defer srv.Close()

	items, err := New(srv.Client(), Config{Endpoint: srv.URL}).Fetch(context.Background(), dialog.Location{City: "Нигде"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.Client(), Config{Endpoint: srv.URL}).Fetch(context.Background(), dialog.Location{City: "Казань"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, dialog.ErrNotFound)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "абв", truncate("абв", 3))
	assert.Equal(t, "аб…", truncate("абвг", 2))
	assert.True(t, strings.HasSuffix(truncate(strings.Repeat("я", 700), maxBodyRunes), "…"))
}
