package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/m3rciful/geobot/app/dialog"

	tele "gopkg.in/telebot.v4"
)

type call struct {
	method string
	chat   int64
	ref    tele.StoredMessage
	text   string
	opts   *tele.SendOptions
}

type fakeAPI struct {
	mu      sync.Mutex
	calls   []call
	failAt  map[int]error
	attempt int
	files   map[string][]byte
}

func (f *fakeAPI) record(c call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempt++
	if err, ok := f.failAt[f.attempt]; ok {
		delete(f.failAt, f.attempt)
		return err
	}
	f.calls = append(f.calls, c)
	return nil
}

func optsOf(opts []interface{}) *tele.SendOptions {
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			return so
		}
	}
	return nil
}

func (f *fakeAPI) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	text, _ := what.(string)
	var chat int64
	if id, ok := to.(tele.ChatID); ok {
		chat = int64(id)
	}
	if err := f.record(call{method: "send", chat: chat, text: text, opts: optsOf(opts)}); err != nil {
		return nil, err
	}
	return &tele.Message{}, nil
}

func (f *fakeAPI) Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error) {
	text, _ := what.(string)
	ref, _ := msg.(tele.StoredMessage)
	if err := f.record(call{method: "edit", ref: ref, text: text, opts: optsOf(opts)}); err != nil {
		return nil, err
	}
	return &tele.Message{}, nil
}

func (f *fakeAPI) Delete(msg tele.Editable) error {
	ref, _ := msg.(tele.StoredMessage)
	return f.record(call{method: "delete", ref: ref})
}

func (f *fakeAPI) File(file *tele.File) (io.ReadCloser, error) {
	data, ok := f.files[file.FileID]
	if !ok {
		return nil, errors.New("file not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeAPI) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

// fakeContext implements the parts of tele.Context the bridge touches.
type fakeContext struct {
	tele.Context
	update    tele.Update
	sender    *tele.User
	text      string
	message   *tele.Message
	callback  *tele.Callback
	store     map[string]interface{}
	responses []*tele.CallbackResponse
	sent      []interface{}
}

func newContext(userID int64) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 1},
		sender: &tele.User{ID: userID},
		store:  map[string]interface{}{},
	}
}

func (c *fakeContext) Update() tele.Update        { return c.update }
func (c *fakeContext) Sender() *tele.User         { return c.sender }
func (c *fakeContext) Chat() *tele.Chat           { return &tele.Chat{ID: c.sender.ID} }
func (c *fakeContext) Text() string               { return c.text }
func (c *fakeContext) Message() *tele.Message     { return c.message }
func (c *fakeContext) Callback() *tele.Callback   { return c.callback }
func (c *fakeContext) Get(key string) interface{} { return c.store[key] }
func (c *fakeContext) Set(key string, v interface{}) {
	c.store[key] = v
}

func (c *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	c.responses = append(c.responses, resp...)
	return nil
}

func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	c.sent = append(c.sent, what)
	return nil
}

type fakeEngine struct {
	events  []dialog.Event
	actions []dialog.Action
	err     error
}

func (e *fakeEngine) Dispatch(_ context.Context, ev dialog.Event, deliver dialog.Deliver) error {
	e.events = append(e.events, ev)
	if e.err != nil {
		return e.err
	}
	deliver(e.actions)
	return nil
}

type fakeSessions struct {
	open  map[int64]bool
	err   error
	count int
}

func (s *fakeSessions) Exists(_ context.Context, id int64) (bool, error) {
	return s.open[id], s.err
}

func (s *fakeSessions) Count(context.Context) (int, error) { return s.count, s.err }
