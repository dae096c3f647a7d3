package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name        string
		cb          *tele.Callback
		key, result string
	}{
		{"nil", nil, "", ""},
		{"unique set by telebot", &tele.Callback{Unique: "news", Data: "1"}, "news", "1"},
		{"raw encoded", &tele.Callback{Data: "\flayer|sat,skl"}, "layer", "sat,skl"},
		{"raw without payload", &tele.Callback{Data: "\fnews"}, "news", ""},
		{"legacy plain", &tele.Callback{Data: "3"}, "3", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, payload := ParseCallbackData(tc.cb)
			assert.Equal(t, tc.key, key)
			assert.Equal(t, tc.result, payload)
		})
	}
}
