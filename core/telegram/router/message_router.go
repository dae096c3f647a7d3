package router

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/geobot/core/telegram"
)

// Conversation receives free-form input of users with an active dialog.
type Conversation interface {
	InProgress(c tele.Context) bool
	HandleText(c tele.Context) error
	HandleVoice(c tele.Context) error
}

// TextOptions controls fallback behaviour for text and voice updates.
type TextOptions struct {
	UnknownText  tele.HandlerFunc
	UnknownVoice tele.HandlerFunc
}

// TextRoutes builds the text and voice routes. Text that names a registered
// command runs the command; otherwise input goes to the conversation while
// one is open and to the fallbacks when not.
func TextRoutes(conv Conversation, reg *tg.Registry, opts TextOptions) []tg.Route {
	active := func(c tele.Context) bool { return conv != nil && conv.InProgress(c) }

	text := func(c tele.Context) error {
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return observe(c, handlerName("", key), cmd.Handler)
			}
		}
		if active(c) {
			return observe(c, "dialog.text", conv.HandleText)
		}
		return observe(c, "unknown_text", opts.UnknownText)
	}

	voice := func(c tele.Context) error {
		if active(c) {
			return observe(c, "dialog.voice", conv.HandleVoice)
		}
		return observe(c, "unexpected_voice", opts.UnknownVoice)
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(text)},
		{Endpoint: tele.OnVoice, Handler: wrap(voice)},
	}
}
