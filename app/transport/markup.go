package transport

import (
	"github.com/m3rciful/geobot/app/dialog"
	"github.com/m3rciful/geobot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// replyMarkup converts a dialog keyboard into Telegram markup.
// A nil result leaves the chat keyboard as it is.
func replyMarkup(kb dialog.Keyboard) *tele.ReplyMarkup {
	switch kb.Kind {
	case dialog.KeyboardReply:
		rows := make([][]string, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			labels := make([]string, 0, len(row))
			for _, b := range row {
				labels = append(labels, b.Label)
			}
			rows = append(rows, labels)
		}
		return keyboard.Reply(rows...)
	case dialog.KeyboardInline:
		rows := make([][]keyboard.InlineBtn, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			btns := make([]keyboard.InlineBtn, 0, len(row))
			for _, b := range row {
				btns = append(btns, keyboard.InlineBtn{
					Text:   b.Label,
					Unique: b.Code.Group(),
					Data:   string(b.Code),
				})
			}
			rows = append(rows, btns)
		}
		return keyboard.Inline(rows...)
	case dialog.KeyboardRemove:
		return keyboard.Remove()
	default:
		return nil
	}
}

func sendOptions(format dialog.Format, kb dialog.Keyboard) *tele.SendOptions {
	opts := &tele.SendOptions{ReplyMarkup: replyMarkup(kb)}
	if format == dialog.FormatMarkdown {
		opts.ParseMode = tele.ModeMarkdown
	}
	return opts
}

func storedMessage(ref dialog.MessageRef) tele.StoredMessage {
	return tele.StoredMessage{MessageID: ref.MessageID, ChatID: ref.ChatID}
}
