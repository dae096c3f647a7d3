package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/geobot/core/logger"
	"github.com/m3rciful/geobot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/geobot/core/telegram/helpers"
)

// LoggerMiddleware prepares the logging context for the update and logs one
// sampled receipt line. Nested applications on the same update are no-ops.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if _, seen := tghelpers.ContextFrom(c); seen {
			return next(c)
		}
		ctx := tghelpers.BuildContext(c)
		if logger.ShouldSampleDebug() {
			logger.Debug(ctx, "tg", "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.Clip(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		attrs = append(attrs,
			slog.String("cb_key", logger.Clip(key, 128)),
			slog.String("payload", logger.Clip(payload, 256)),
		)
	case upd.Message != nil && upd.Message.Voice != nil:
		attrs = append(attrs, slog.String("input", "voice"))
	case upd.Message != nil:
		attrs = append(attrs, slog.String("payload", logger.Clip(c.Text(), 256)))
	}
	return attrs
}
