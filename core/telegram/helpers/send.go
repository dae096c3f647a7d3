package helpers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/geobot/core/logger"
	"github.com/m3rciful/geobot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	return dispatch(c, action, endpoint, run, true, func(d *sender.Dispatcher, ctx context.Context) error {
		return d.Enqueue(ctx, action, endpoint, run)
	})
}

// SendOrdered runs a delivery job behind every earlier job queued for the same key.
// Without a dispatcher the job runs inline. With one, a rejected job is
// never run inline, since it would overtake the jobs already queued.
func SendOrdered(c tele.Context, key int64, action, endpoint string, run func() error) error {
	return dispatch(c, action, endpoint, run, false, func(d *sender.Dispatcher, ctx context.Context) error {
		return d.EnqueueKeyed(ctx, key, action, endpoint, run)
	})
}

func dispatch(c tele.Context, action, endpoint string, run func() error, inline bool, enqueue func(*sender.Dispatcher, context.Context) error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := enqueue(disp, ctx)
	if err == nil {
		return nil
	}
	rejected := errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed)
	event := "queue.reject"
	if inline && rejected {
		event = "queue.fallback"
	}
	logger.Warn(ctx, "tg.sender", event,
		slog.String("op", action),
		slog.String("endpoint", endpoint),
		slog.String("err", err.Error()),
	)
	if event == "queue.fallback" {
		return run()
	}
	return err
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}
