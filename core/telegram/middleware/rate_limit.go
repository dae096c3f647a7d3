package middleware

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/geobot/core/config"
	"github.com/m3rciful/geobot/core/logger"
	tghelpers "github.com/m3rciful/geobot/core/telegram/helpers"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude lists update kinds (callback, message, inline_query) that bypass the limit.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// throttle remembers when each user was last let through.
type throttle struct {
	interval time.Duration
	mu       sync.Mutex
	last     map[int64]time.Time
	swept    time.Time
}

// allow reports whether userID may proceed at now and records the pass.
func (t *throttle) allow(userID int64, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.last[userID]; ok && now.Sub(prev) < t.interval {
		return false
	}
	t.last[userID] = now
	if now.Sub(t.swept) > time.Minute {
		for id, ts := range t.last {
			if now.Sub(ts) >= t.interval {
				delete(t.last, id)
			}
		}
		t.last[userID] = now
		t.swept = now
	}
	return true
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return coreconfig.UpdateCallback
	case upd.Message != nil:
		return coreconfig.UpdateMessage
	case upd.Query != nil:
		return coreconfig.UpdateInlineQuery
	}
	return "other"
}

// isCommand reports whether upd carries a slash command.
func isCommand(upd tele.Update) bool {
	return upd.Message != nil && strings.HasPrefix(upd.Message.Text, "/")
}

// RateLimitMiddleware enforces a minimum interval between updates from one user.
// Slash commands are never limited, so /stop and /start always get through.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	t := &throttle{interval: opts.Interval, last: make(map[int64]time.Time)}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 || isCommand(c.Update()) {
				return next(c)
			}
			kind := updateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip || t.allow(user.ID, time.Now()) {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
				slog.String("status", "rate_limited"),
				slog.String("input", kind),
			)
			if opts.OnLimited != nil {
				return opts.OnLimited(c)
			}
			return nil
		}
	}
}
