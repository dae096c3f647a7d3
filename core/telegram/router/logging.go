package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/geobot/core/logger"
	tghelpers "github.com/m3rciful/geobot/core/telegram/helpers"
	"github.com/m3rciful/geobot/core/telegram/middleware"
)

// wrap applies the per-route middleware every handler gets.
func wrap(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
}

// observe runs fn as handler name and logs one handler.handled line.
// A nil fn is logged as skipped.
func observe(c tele.Context, name string, fn tele.HandlerFunc, extras ...slog.Attr) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, name)

	status, outcome := "skip", "ok"
	var err error
	if fn != nil {
		status = "ok"
		if err = fn(c); err != nil {
			status, outcome = "fail", "fail"
		}
	}

	msgs, kb := middleware.GetCounters(c)
	attrs := append([]slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(start)),
	}, extras...)
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.Clip(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.Info(ctx, "tg", "handler.handled", attrs...)
	return err
}

// handlerName turns a command or callback key into a log-friendly name.
func handlerName(prefix, key string) string {
	key = strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(key), "/"), " ", "_"))
	if key == "" {
		key = "unknown"
	}
	return prefix + key
}

// errorCode names err by its Code method or by the type of its innermost
// wrapped error.
func errorCode(err error) string {
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	for next := errors.Unwrap(err); next != nil; next = errors.Unwrap(err) {
		err = next
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
