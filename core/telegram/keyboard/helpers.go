// Package keyboard builds Telegram reply and inline markups from plain labels.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is one inline button. Unique routes the callback, Data is its payload.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// Remove hides the reply keyboard.
func Remove() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// Reply builds a resized reply keyboard. Empty rows are skipped.
func Reply(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	keys := make([]tele.Row, 0, len(rows))
	for _, labels := range rows {
		if len(labels) == 0 {
			continue
		}
		row := make(tele.Row, len(labels))
		for i, label := range labels {
			row[i] = markup.Text(label)
		}
		keys = append(keys, row)
	}
	markup.Reply(keys...)
	return markup
}

// Inline builds an inline keyboard. Empty rows are skipped.
func Inline(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	keys := make([]tele.Row, 0, len(rows))
	for _, btns := range rows {
		if len(btns) == 0 {
			continue
		}
		row := make(tele.Row, len(btns))
		for i, b := range btns {
			row[i] = markup.Data(b.Text, b.Unique, b.Data)
		}
		keys = append(keys, row)
	}
	markup.Inline(keys...)
	return markup
}
