// Package speech recognises voice messages with Yandex SpeechKit.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/m3rciful/geobot/app/adapters/fetch"
	"github.com/m3rciful/geobot/app/dialog"
)

const DefaultEndpoint = "https://stt.api.cloud.yandex.net/speech/v1/stt:recognize"

// Config holds the SpeechKit settings.
type Config struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key" envconfig:"SPEECHKIT_API_KEY"`
	FolderID string `yaml:"folder_id" envconfig:"SPEECHKIT_FOLDER_ID"`
	Lang     string `yaml:"lang"`
}

// Client implements dialog.SpeechTranscriber.
type Client struct {
	http *http.Client
	cfg  Config
}

// New builds a SpeechKit client.
func New(httpClient *http.Client, cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Lang == "" {
		cfg.Lang = "ru-RU"
	}
	return &Client{http: httpClient, cfg: cfg}
}

// Transcribe sends OGG/Opus audio and returns the recognised text.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", dialog.ErrNotFound
	}
	q := url.Values{}
	q.Set("lang", c.cfg.Lang)
	q.Set("topic", "general")
	q.Set("format", "oggopus")
	if c.cfg.FolderID != "" {
		q.Set("folderId", c.cfg.FolderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"?"+q.Encode(), bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Api-Key "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "audio/ogg")

	body, err := fetch.Do(c.http, req)
	if err != nil {
		return "", fmt.Errorf("speechkit: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return "", errors.New("speechkit: malformed response")
	}
	if msg := gjson.GetBytes(body, "error_message").String(); msg != "" {
		return "", fmt.Errorf("speechkit: %s", msg)
	}
	text := strings.TrimSpace(gjson.GetBytes(body, "result").String())
	if text == "" {
		return "", dialog.ErrNotFound
	}
	return text, nil
}
