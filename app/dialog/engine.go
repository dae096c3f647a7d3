package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/geobot/core/logger"
)

const (
	component             = "dialog"
	defaultAdapterTimeout = 10 * time.Second
	forecastDays          = 6
)

// Store keeps sessions and serializes transitions per session.
type Store interface {
	// Reset replaces any existing session with s, preempting in-flight work.
	// The then hooks run once s is stored, before any later commit of the session.
	Reset(ctx context.Context, s *Session, then ...func()) error
	// Apply runs fn on the current session and commits the returned value.
	// It returns ErrNoSession if the session does not exist and
	// ErrSessionDiscarded if it was discarded while fn was running.
	// The then hooks run after the commit, before any later commit of the session.
	Apply(ctx context.Context, id int64, fn func(ctx context.Context, cur *Session) (*Session, error), then ...func()) error
	// Discard removes the session and returns its last committed value.
	Discard(ctx context.Context, id int64) (*Session, error)
}

// Recorder receives engine metrics.
type Recorder interface {
	Transition(from, to State)
	AdapterCall(adapter, outcome string, took time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) Transition(State, State)                   {}
func (nopRecorder) AdapterCall(string, string, time.Duration) {}

// Options configures the engine.
type Options struct {
	Store    Store
	Adapters Adapters
	// AdapterTimeout bounds every adapter call; zero means 10s.
	AdapterTimeout time.Duration
	Recorder       Recorder
	Now            func() time.Time
}

// Engine is the conversation state machine.
type Engine struct {
	store   Store
	ad      Adapters
	timeout time.Duration
	rec     Recorder
	now     func() time.Time
}

// New validates options and builds an engine.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("dialog: store is required")
	}
	if err := opts.Adapters.validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		store:   opts.Store,
		ad:      opts.Adapters,
		timeout: opts.AdapterTimeout,
		rec:     opts.Recorder,
		now:     opts.Now,
	}
	if e.timeout <= 0 {
		e.timeout = defaultAdapterTimeout
	}
	if e.rec == nil {
		e.rec = nopRecorder{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// Deliver receives the actions of a committed step. It is called before the
// next step of the same session commits, so queueing them keeps their order.
type Deliver func(actions []Action)

// Handle processes one inbound event and returns the actions to deliver.
// Events of one session are applied strictly one after another.
func (e *Engine) Handle(ctx context.Context, ev Event) ([]Action, error) {
	var out []Action
	err := e.Dispatch(ctx, ev, func(actions []Action) { out = actions })
	return out, err
}

// Dispatch processes one inbound event and hands its actions to deliver.
// deliver is not called when the step is dropped or fails.
func (e *Engine) Dispatch(ctx context.Context, ev Event, deliver Deliver) error {
	if ev == nil {
		return errors.New("dialog: nil event")
	}
	if deliver == nil {
		deliver = func([]Action) {}
	}
	if logger.FieldsFrom(ctx).TraceID == "" {
		ctx = logger.WithTrace(ctx, uuid.NewString())
	}
	id := ev.SessionID()
	ctx = logger.WithSession(ctx, id, "")

	switch ev.(type) {
	case StartCommand:
		return e.start(ctx, id, deliver)
	case StopCommand:
		return e.stop(ctx, id, deliver)
	}

	var (
		out      []Action
		from, to State
		moved    bool
	)
	err := e.store.Apply(ctx, id, func(ctx context.Context, cur *Session) (*Session, error) {
		next, actions := e.transition(ctx, cur, ev)
		// A failed step hands back cur itself.
		out, from, to, moved = actions, cur.State, next.State, next != cur
		return next, nil
	}, func() {
		deliver(out)
	})
	switch {
	case errors.Is(err, ErrNoSession):
		deliver([]Action{SendMessage{SessionID: id, Text: msgNotStarted, Keyboard: removeKeyboard}})
		return nil
	case errors.Is(err, ErrSessionDiscarded):
		logger.Debug(ctx, component, "dialog.discarded",
			slog.String("input", ev.kind()),
		)
		return nil
	case err != nil:
		return fmt.Errorf("dialog: apply %s: %w", ev.kind(), err)
	}
	if moved {
		e.rec.Transition(from, to)
	}
	return nil
}

func (e *Engine) start(ctx context.Context, id int64, deliver Deliver) error {
	s := NewSession(id)
	s.UpdatedAt = e.now()
	err := e.store.Reset(ctx, s, func() {
		deliver([]Action{SendMessage{SessionID: id, Text: msgEnterName, Keyboard: skipKeyboard}})
	})
	if err != nil {
		return fmt.Errorf("dialog: start session: %w", err)
	}
	e.rec.Transition("", StateEnterName)
	logger.Info(ctx, component, "dialog.start")
	return nil
}

func (e *Engine) stop(ctx context.Context, id int64, deliver Deliver) error {
	prev, err := e.store.Discard(ctx, id)
	if err != nil && !errors.Is(err, ErrNoSession) {
		return fmt.Errorf("dialog: stop session: %w", err)
	}
	from := State("")
	if prev != nil {
		from = prev.State
	}
	e.rec.Transition(from, StateStopped)
	logger.Info(ctx, component, "dialog.stop",
		slog.String("from", string(from)),
	)
	deliver([]Action{SendMessage{SessionID: id, Text: msgGoodbyeFor(prev.Name()), Keyboard: removeKeyboard}})
	return nil
}

// turn accumulates the result of a single transition.
type turn struct {
	s       *Session
	ev      Event
	actions []Action
}

func (t *turn) send(text string, kb Keyboard) {
	t.actions = append(t.actions, SendMessage{SessionID: t.s.ID, Text: text, Keyboard: kb})
}

func (t *turn) sendMarkdown(text string, kb Keyboard) {
	t.actions = append(t.actions, SendMessage{SessionID: t.s.ID, Text: text, Format: FormatMarkdown, Keyboard: kb})
}

func (t *turn) edit(ref MessageRef, text string, kb Keyboard) {
	t.actions = append(t.actions, EditMessage{SessionID: t.s.ID, Ref: ref, Text: text, Format: FormatMarkdown, Keyboard: kb})
}

func (t *turn) delete(ref MessageRef) {
	t.actions = append(t.actions, DeleteMessage{SessionID: t.s.ID, Ref: ref})
}

func (t *turn) text() (string, bool) {
	in, ok := t.ev.(TextInput)
	return in.Text, ok
}

// transition computes the next session value. On any failure the
// previous value is returned unchanged.
func (e *Engine) transition(ctx context.Context, cur *Session, ev Event) (*Session, []Action) {
	ctx = logger.WithSession(ctx, cur.ID, string(cur.State))
	t := &turn{s: cur.Clone(), ev: ev}

	var err error
	switch {
	case t.s.State.requiresLocation() && t.s.Location == nil:
		t.s.clearNews()
		t.s.clearFlights()
		t.s.State = StateIdle
		t.send(msgEnterAnyLocation, removeKeyboard)
	case t.s.State.requiresOrigin() && t.s.OriginAirportCode == "":
		err = e.askOrigin(ctx, t)
	default:
		err = e.dispatch(ctx, t)
	}

	if err != nil {
		return cur, e.recover(ctx, cur, ev, err)
	}

	t.s.UpdatedAt = e.now()
	logger.Debug(ctx, component, "dialog.transition",
		slog.String("input", ev.kind()),
		slog.String("from", string(cur.State)),
		slog.String("to", string(t.s.State)),
		slog.Int("actions", len(t.actions)),
	)
	return t.s, t.actions
}

func (e *Engine) dispatch(ctx context.Context, t *turn) error {
	switch t.s.State {
	case StateEnterName:
		return e.onEnterName(t)
	case StateEnterLocation:
		return e.onEnterLocation(t)
	case StateIdle:
		return e.onIdle(ctx, t)
	case StateLocation:
		return e.onLocation(ctx, t)
	case StateNews:
		return e.onNews(t)
	case StateWeather:
		return e.onWeather(ctx, t)
	case StateRasp:
		return e.onRasp(ctx, t)
	case StateSecondCity:
		return e.onSecondCity(t)
	case StateSecondAirport:
		return e.onSecondAirport(ctx, t)
	case StateFindFlights:
		return e.onFindFlights(ctx, t)
	case StateStopped:
		return nil
	}
	return fmt.Errorf("dialog: unknown state %q", t.s.State)
}

// recover converts a failed transition into user-visible actions.
func (e *Engine) recover(ctx context.Context, cur *Session, ev Event, err error) []Action {
	attrs := []slog.Attr{slog.String("input", ev.kind())}
	switch {
	case errors.Is(err, ErrInvalidInput):
		logger.Debug(ctx, component, "dialog.reprompt", attrs...)
		return reprompt(cur)
	case IsTransient(err):
		logger.Warn(ctx, component, "dialog.adapter_failed", append(attrs, slog.String("err", err.Error()))...)
	default:
		logger.Error(ctx, component, "dialog.failed", append(attrs, slog.String("err", err.Error()))...)
	}
	return []Action{SendMessage{SessionID: cur.ID, Text: msgTransient}}
}

// reprompt repeats the question of the current state.
func reprompt(s *Session) []Action {
	msg := func(text string, kb Keyboard) []Action {
		return []Action{SendMessage{SessionID: s.ID, Text: text, Keyboard: kb}}
	}
	switch s.State {
	case StateEnterName:
		return msg(msgEnterName, skipKeyboard)
	case StateEnterLocation:
		return msg(msgEnterLocation, skipKeyboard)
	case StateIdle:
		return msg(msgEnterAnyLocation, removeKeyboard)
	case StateLocation:
		return msg(msgChooseFunction, mainMenu)
	case StateWeather:
		return msg(msgWeatherQuestion(s.Location.City), weatherMenu)
	case StateRasp:
		return msg(msgChooseSearch, scheduleMenu)
	case StateSecondCity:
		return msg(msgOriginQuestion(s.originCity()), airportKeyboard(s.OriginAirports))
	case StateSecondAirport:
		return msg(msgEnterDestination, backKeyboard)
	case StateFindFlights:
		return msg(msgChooseArrival, airportKeyboard(s.DestinationAirports))
	}
	return nil
}

// call runs an adapter function under the configured timeout and records its outcome.
func (e *Engine) call(ctx context.Context, adapter string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	err := classify(adapter, fn(callCtx))
	took := time.Since(start)

	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "fail"
	}
	e.rec.AdapterCall(adapter, outcome, took)
	status := "ok"
	if outcome == "fail" {
		status = "fail"
	}
	logger.Debug(ctx, "adapter", "adapter.call",
		slog.String("status", status),
		slog.String("adapter", adapter),
		slog.String("outcome", outcome),
		slog.Duration("duration", took),
	)
	return err
}

func (e *Engine) geocode(ctx context.Context, query string) (Location, error) {
	var loc Location
	err := e.call(ctx, "geocoder", func(ctx context.Context) error {
		var err error
		loc, err = e.ad.Geocoder.Lookup(ctx, query)
		return err
	})
	return loc, err
}

func (e *Engine) lookupAirports(ctx context.Context, city string) ([]Airport, error) {
	var airports []Airport
	err := e.call(ctx, "airports", func(ctx context.Context) error {
		var err error
		airports, err = e.ad.Airports.Lookup(ctx, city)
		return err
	})
	if err == nil && len(airports) == 0 {
		err = ErrNotFound
	}
	return airports, err
}
