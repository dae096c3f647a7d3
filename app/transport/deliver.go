package transport

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/m3rciful/geobot/app/dialog"

	tele "gopkg.in/telebot.v4"
)

// API is the part of the Bot API used to deliver actions. *tele.Bot satisfies it.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
	File(file *tele.File) (io.ReadCloser, error)
}

var errNoAPI = errors.New("transport: bot api not attached")

// batch delivers actions in order. A failed run resumes from the failed action,
// so dispatcher retries never duplicate delivered messages.
type batch struct {
	api     API
	actions []dialog.Action
	next    int
}

func (b *batch) run() error {
	if b.api == nil {
		return errNoAPI
	}
	for b.next < len(b.actions) {
		if err := deliver(b.api, b.actions[b.next]); err != nil {
			return err
		}
		b.next++
	}
	return nil
}

func deliver(api API, action dialog.Action) error {
	switch a := action.(type) {
	case dialog.SendMessage:
		_, err := api.Send(tele.ChatID(a.SessionID), a.Text, sendOptions(a.Format, a.Keyboard))
		return err
	case dialog.EditMessage:
		_, err := api.Edit(storedMessage(a.Ref), a.Text, sendOptions(a.Format, a.Keyboard))
		if isBenign(err) {
			return nil
		}
		return err
	case dialog.DeleteMessage:
		err := api.Delete(storedMessage(a.Ref))
		if isBenign(err) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("transport: unsupported action %T", action)
	}
}

// isBenign reports Bot API errors that leave the chat in the intended state.
func isBenign(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "message is not modified") ||
		strings.Contains(msg, "message to delete not found")
}
