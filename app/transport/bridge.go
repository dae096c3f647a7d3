// Package transport connects the dialog engine to the Telegram Bot API.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/m3rciful/geobot/app/dialog"
	"github.com/m3rciful/geobot/core/logger"
	tg "github.com/m3rciful/geobot/core/telegram"
	"github.com/m3rciful/geobot/core/telegram/callbacks"
	"github.com/m3rciful/geobot/core/telegram/commands"
	tghelpers "github.com/m3rciful/geobot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const (
	component = "transport"

	// DefaultMaxVoiceBytes caps downloaded voice notes.
	DefaultMaxVoiceBytes = 1 << 20
)

// Engine handles dialog events. deliver runs while the step still holds
// its session, so replies are queued in commit order.
type Engine interface {
	Dispatch(ctx context.Context, ev dialog.Event, deliver dialog.Deliver) error
}

// Sessions answers presence questions about conversations.
type Sessions interface {
	Exists(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int, error)
}

// Options configures a Bridge.
type Options struct {
	Engine        Engine
	Sessions      Sessions
	MaxVoiceBytes int64
	// AdminID enables the /sessions command for one user.
	AdminID int64
}

// Bridge turns Telegram updates into dialog events and delivers the resulting actions.
type Bridge struct {
	engine   Engine
	sessions Sessions
	maxVoice int64
	adminID  int64
	api      API
}

// New returns a Bridge. Attach must be called before updates arrive.
func New(opts Options) (*Bridge, error) {
	if opts.Engine == nil {
		return nil, errors.New("transport: engine is required")
	}
	if opts.MaxVoiceBytes <= 0 {
		opts.MaxVoiceBytes = DefaultMaxVoiceBytes
	}
	return &Bridge{
		engine:   opts.Engine,
		sessions: opts.Sessions,
		maxVoice: opts.MaxVoiceBytes,
		adminID:  opts.AdminID,
	}, nil
}

// Attach sets the Bot API client used for delivery and file downloads.
func (b *Bridge) Attach(api API) {
	b.api = api
}

// Register adds the conversation commands and callback groups to reg.
func (b *Bridge) Register(reg *tg.Registry) error {
	cmds := map[string]commands.Command{
		"/start": {Handler: b.onStart, Description: "Начать диалог"},
		"/stop":  {Handler: b.onStop, Description: "Завершить диалог"},
	}
	if b.adminID != 0 && b.sessions != nil {
		cmds["/sessions"] = commands.Command{
			Handler:     b.onSessions,
			Description: "Число активных сеансов",
			AdminOnly:   true,
			Hidden:      true,
		}
	}
	for name, cmd := range cmds {
		if err := reg.RegisterCommand(name, cmd); err != nil {
			return err
		}
	}
	for _, group := range []string{dialog.GroupNews, dialog.GroupLayer} {
		if err := reg.RegisterCallback(group, b.onCallback); err != nil {
			return err
		}
	}
	return nil
}

// InProgress reports whether the sender has an open conversation.
// Lookup failures count as open so the engine can answer.
func (b *Bridge) InProgress(c tele.Context) bool {
	id, ok := senderID(c)
	if !ok {
		return false
	}
	if b.sessions == nil {
		return true
	}
	ctx := tghelpers.BuildContext(c)
	exists, err := b.sessions.Exists(ctx, id)
	if err != nil {
		logger.Warn(ctx, component, "session.lookup",
			slog.String("status", "fail"),
			slog.Int64("session_id", id),
			slog.String("err", err.Error()),
		)
		return true
	}
	return exists
}

// HandleText forwards a text message.
func (b *Bridge) HandleText(c tele.Context) error {
	id, ok := senderID(c)
	if !ok {
		return nil
	}
	return b.run(c, dialog.TextInput{Origin: dialog.Origin{Session: id}, Text: c.Text()})
}

// HandleVoice downloads a voice note and forwards it.
func (b *Bridge) HandleVoice(c tele.Context) error {
	id, ok := senderID(c)
	if !ok {
		return nil
	}
	var audio []byte
	if msg := c.Message(); msg != nil && msg.Voice != nil {
		audio = b.download(tghelpers.BuildContext(c), msg.Voice)
	}
	return b.run(c, dialog.VoiceInput{Origin: dialog.Origin{Session: id}, Audio: audio})
}

// UnknownText answers text from users without a conversation.
func (b *Bridge) UnknownText() tele.HandlerFunc { return b.HandleText }

// UnknownVoice answers voice notes from users without a conversation.
func (b *Bridge) UnknownVoice() tele.HandlerFunc { return b.HandleVoice }

// UnknownCallback answers presses of buttons the bot does not know.
func (b *Bridge) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "Кнопка больше не действует"})
	}
}

func (b *Bridge) onStart(c tele.Context) error {
	id, ok := senderID(c)
	if !ok {
		return nil
	}
	return b.run(c, dialog.StartCommand{Origin: dialog.Origin{Session: id}})
}

func (b *Bridge) onStop(c tele.Context) error {
	id, ok := senderID(c)
	if !ok {
		return nil
	}
	return b.run(c, dialog.StopCommand{Origin: dialog.Origin{Session: id}})
}

func (b *Bridge) onSessions(c tele.Context) error {
	if b.sessions == nil {
		return nil
	}
	n, err := b.sessions.Count(tghelpers.BuildContext(c))
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, fmt.Sprintf("Активных сеансов: %d", n))
}

func (b *Bridge) onCallback(c tele.Context) error {
	id, ok := senderID(c)
	if !ok {
		return nil
	}
	cb := c.Callback()
	code, valid := dialog.ParseCallbackCode(callbacks.CallbackPayload(c))
	if !valid || cb == nil || cb.Message == nil {
		return b.UnknownCallback()(c)
	}
	ref := dialog.MessageRef{MessageID: strconv.Itoa(cb.Message.ID)}
	if cb.Message.Chat != nil {
		ref.ChatID = cb.Message.Chat.ID
	}
	_ = c.Respond()
	return b.run(c, dialog.CallbackEvent{
		Origin:  dialog.Origin{Session: id},
		Code:    code,
		Message: ref,
	})
}

func (b *Bridge) run(c tele.Context, ev dialog.Event) error {
	ctx := tghelpers.BuildContext(c)
	var sendErr error
	err := b.engine.Dispatch(ctx, ev, func(actions []dialog.Action) {
		if len(actions) == 0 {
			return
		}
		job := &batch{api: b.api, actions: actions}
		sendErr = tghelpers.SendOrdered(c, ev.SessionID(), "dialog.deliver", "batch", job.run)
	})
	if err != nil {
		return err
	}
	return sendErr
}

func (b *Bridge) download(ctx context.Context, voice *tele.Voice) []byte {
	if b.api == nil {
		return nil
	}
	if voice.FileSize > 0 && int64(voice.FileSize) > b.maxVoice {
		logger.Info(ctx, component, "voice.skip",
			slog.String("status", "skip"),
			slog.Int64("bytes", int64(voice.FileSize)),
		)
		return nil
	}
	rc, err := b.api.File(&voice.File)
	if err != nil {
		logger.Warn(ctx, component, "voice.download",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return nil
	}
	defer rc.Close()
	audio, err := io.ReadAll(io.LimitReader(rc, b.maxVoice+1))
	if err != nil || int64(len(audio)) > b.maxVoice {
		logger.Warn(ctx, component, "voice.download",
			slog.String("status", "fail"),
			slog.Int("bytes", len(audio)),
		)
		return nil
	}
	return audio
}

// senderID keys sessions by the Telegram user.
func senderID(c tele.Context) (int64, bool) {
	u := c.Sender()
	if u == nil {
		return 0, false
	}
	return u.ID, true
}
