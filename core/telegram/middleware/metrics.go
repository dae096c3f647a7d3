package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "reply_counters"

// replyCounters tracks what a handler sent back. Deliveries may run on the
// sender goroutines, so the fields are atomic.
type replyCounters struct {
	messages atomic.Int64
	keyboard atomic.Bool
}

// countingContext counts successful outgoing messages and edits.
type countingContext struct {
	tele.Context
	counters *replyCounters
}

func (c countingContext) count(opts []any, err error) error {
	if err != nil {
		return err
	}
	c.counters.messages.Add(1)
	if carriesMarkup(opts) {
		c.counters.keyboard.Store(true)
	}
	return nil
}

func carriesMarkup(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (c countingContext) Send(what any, opts ...any) error {
	return c.count(opts, c.Context.Send(what, opts...))
}

func (c countingContext) Reply(what any, opts ...any) error {
	return c.count(opts, c.Context.Reply(what, opts...))
}

func (c countingContext) Edit(what any, opts ...any) error {
	return c.count(opts, c.Context.Edit(what, opts...))
}

func (c countingContext) EditOrSend(what any, opts ...any) error {
	return c.count(opts, c.Context.EditOrSend(what, opts...))
}

func (c countingContext) EditOrReply(what any, opts ...any) error {
	return c.count(opts, c.Context.EditOrReply(what, opts...))
}

// MessageMetricsMiddleware counts the replies each handler produces.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		counters := &replyCounters{}
		c.Set(countersKey, counters)
		return next(countingContext{Context: c, counters: counters})
	}
}

// GetCounters reports how many messages were sent so far for this update and
// whether any of them carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	counters, ok := c.Get(countersKey).(*replyCounters)
	if !ok {
		return 0, false
	}
	return int(counters.messages.Load()), counters.keyboard.Load()
}
