package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/geobot/app/dialog"
	tg "github.com/m3rciful/geobot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

func newBridge(t *testing.T, eng *fakeEngine, sessions *fakeSessions) (*Bridge, *fakeAPI) {
	t.Helper()
	b, err := New(Options{Engine: eng, Sessions: sessions, MaxVoiceBytes: 8, AdminID: 99})
	require.NoError(t, err)
	api := &fakeAPI{files: map[string][]byte{
		"small": []byte("ogg"),
		"large": []byte("0123456789abcdef"),
	}}
	b.Attach(api)
	return b, api
}

func TestNew_RequiresEngine(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestBridge_TextDeliversActions(t *testing.T) {
	eng := &fakeEngine{actions: []dialog.Action{
		dialog.SendMessage{SessionID: 5, Text: "Введите город"},
	}}
	b, api := newBridge(t, eng, &fakeSessions{})

	c := newContext(5)
	c.text = "Париж"
	require.NoError(t, b.HandleText(c))

	require.Len(t, eng.events, 1)
	assert.Equal(t, dialog.TextInput{Origin: dialog.Origin{Session: 5}, Text: "Париж"}, eng.events[0])
	calls := api.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "Введите город", calls[0].text)
	assert.Equal(t, int64(5), calls[0].chat)
}

func TestBridge_EngineErrorPropagates(t *testing.T) {
	eng := &fakeEngine{err: errors.New("boom")}
	b, api := newBridge(t, eng, &fakeSessions{})
	assert.Error(t, b.HandleText(newContext(1)))
	assert.Empty(t, api.snapshot())
}

func TestBridge_InProgress(t *testing.T) {
	sessions := &fakeSessions{open: map[int64]bool{1: true}}
	b, _ := newBridge(t, &fakeEngine{}, sessions)
	assert.True(t, b.InProgress(newContext(1)))
	assert.False(t, b.InProgress(newContext(2)))

	sessions.err = errors.New("redis down")
	assert.True(t, b.InProgress(newContext(2)))
}

func TestBridge_Commands(t *testing.T) {
	eng := &fakeEngine{}
	b, _ := newBridge(t, eng, &fakeSessions{})
	require.NoError(t, b.onStart(newContext(3)))
	require.NoError(t, b.onStop(newContext(3)))
	assert.Equal(t, []dialog.Event{
		dialog.StartCommand{Origin: dialog.Origin{Session: 3}},
		dialog.StopCommand{Origin: dialog.Origin{Session: 3}},
	}, eng.events)
}

func TestBridge_Voice(t *testing.T) {
	eng := &fakeEngine{}
	b, _ := newBridge(t, eng, &fakeSessions{})

	c := newContext(4)
	c.message = &tele.Message{Voice: &tele.Voice{File: tele.File{FileID: "small"}}}
	require.NoError(t, b.HandleVoice(c))

	c = newContext(4)
	c.message = &tele.Message{Voice: &tele.Voice{File: tele.File{FileID: "large"}}}
	require.NoError(t, b.HandleVoice(c))

	require.Len(t, eng.events, 2)
	assert.Equal(t, []byte("ogg"), eng.events[0].(dialog.VoiceInput).Audio)
	assert.Nil(t, eng.events[1].(dialog.VoiceInput).Audio, "oversized notes are not forwarded")
}

func TestBridge_Callback(t *testing.T) {
	eng := &fakeEngine{}
	b, _ := newBridge(t, eng, &fakeSessions{})

	c := newContext(6)
	c.callback = &tele.Callback{
		Unique:  "news",
		Data:    "1",
		Message: &tele.Message{ID: 77, Chat: &tele.Chat{ID: 6}},
	}
	require.NoError(t, b.onCallback(c))
	require.Len(t, eng.events, 1)
	assert.Equal(t, dialog.CallbackEvent{
		Origin:  dialog.Origin{Session: 6},
		Code:    dialog.CodeNext,
		Message: dialog.MessageRef{MessageID: "77", ChatID: 6},
	}, eng.events[0])
}

func TestBridge_UnknownCallbackCode(t *testing.T) {
	eng := &fakeEngine{}
	b, _ := newBridge(t, eng, &fakeSessions{})

	c := newContext(6)
	c.callback = &tele.Callback{Unique: "news", Data: "9", Message: &tele.Message{ID: 1}}
	require.NoError(t, b.onCallback(c))
	assert.Empty(t, eng.events)
	require.Len(t, c.responses, 1)
}

func TestBridge_Sessions(t *testing.T) {
	b, _ := newBridge(t, &fakeEngine{}, &fakeSessions{count: 3})
	c := newContext(1)
	require.NoError(t, b.onSessions(c))
	assert.Equal(t, []interface{}{"Активных сеансов: 3"}, c.sent)
}

func TestBridge_Register(t *testing.T) {
	b, _ := newBridge(t, &fakeEngine{}, &fakeSessions{})
	reg := tg.NewRegistry()
	require.NoError(t, b.Register(reg))

	_, cmd, ok := reg.LookupCommand("/sessions")
	require.True(t, ok)
	assert.True(t, cmd.AdminOnly)
	assert.Equal(t, []string{"layer", "news"}, reg.ListCallbacks())
	assert.Len(t, reg.ListCommands(true), 2)
}

func TestBridge_RegisterWithoutAdmin(t *testing.T) {
	b, err := New(Options{Engine: &fakeEngine{}, Sessions: &fakeSessions{}})
	require.NoError(t, err)
	reg := tg.NewRegistry()
	require.NoError(t, b.Register(reg))
	_, _, ok := reg.LookupCommand("/sessions")
	assert.False(t, ok)
}
