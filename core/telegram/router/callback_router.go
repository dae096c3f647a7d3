package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/geobot/core/telegram"
	"github.com/m3rciful/geobot/core/telegram/callbacks"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute routes every callback through the registry by its unique key.
// Unknown keys go to the registry fallback, then to opts.NotFound.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key := callbacks.CallbackKey(c)
		name := handlerName("callback.", key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		if h, ok := reg.GetCallback(key); ok {
			return observe(c, name, h, extras...)
		}
		fallback := reg.CallbackNotFound()
		if fallback == nil {
			fallback = opts.NotFound
		}
		return observe(c, name, fallback, append(extras, slog.String("cause", "not_found"))...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: wrap(handler)}
}
