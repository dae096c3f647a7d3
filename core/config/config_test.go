package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsToLongpoll(t *testing.T) {
	path := writeConfig(t, "telegram:\n  token: abc\nrate_limit:\n  exclude_updates: [Callback]\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, []string{UpdateCallback}, cfg.RateLimit.ExcludeUpdates)
}

func TestLoad_EnvOverridesToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "from-env")
	path := writeConfig(t, "telegram:\n  token: from-file\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
}

func TestNormalize_Errors(t *testing.T) {
	cases := map[string]Config{
		"missing token": {},
		"bad run mode":  {Telegram: TelegramConfig{Token: "t", RunMode: "push"}},
		"webhook url":   {Telegram: TelegramConfig{Token: "t", RunMode: RunModeWebhook}},
		"bad exclude":   {Telegram: TelegramConfig{Token: "t"}, RateLimit: RateLimitConfig{ExcludeUpdates: []string{"poll"}}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, Normalize(&cfg))
		})
	}
}

func TestNormalize_PollingAlias(t *testing.T) {
	cfg := Config{Telegram: TelegramConfig{Token: "t", RunMode: "Polling"}}
	require.NoError(t, Normalize(&cfg))
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
}

func TestDecode_MissingFile(t *testing.T) {
	var cfg Config
	assert.Error(t, Decode(filepath.Join(t.TempDir(), "nope.yaml"), &cfg))
}

func TestNormalize_Webhook(t *testing.T) {
	cfg := Config{
		Telegram: TelegramConfig{Token: "t", RunMode: " WEBHOOK "},
		Webhook:  WebhookConfig{URL: "https://bot.example.org/hook", Listen: "0.0.0.0", Port: 8443},
	}
	require.NoError(t, Normalize(&cfg))
	assert.Equal(t, RunModeWebhook, cfg.Telegram.RunMode)

	cfg.Webhook.Port = 0
	assert.Error(t, Normalize(&cfg))
}

func TestNormalize_DropsBlankExcludes(t *testing.T) {
	cfg := Config{
		Telegram:  TelegramConfig{Token: "t"},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{" ", "Message", "inline_query"}},
	}
	require.NoError(t, Normalize(&cfg))
	assert.Equal(t, []string{UpdateMessage, UpdateInlineQuery}, cfg.RateLimit.ExcludeUpdates)
}
