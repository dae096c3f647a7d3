package logger

import (
	"context"
	"log/slog"
)

// Fields is the correlation data a context contributes to every log line.
type Fields struct {
	RID       string
	TraceID   string
	UpdateID  int
	UserID    int64
	ChatID    int64
	Handler   string
	SessionID int64
	State     string
}

type fieldsKey struct{}

type loggerKey struct{}

// FieldsFrom returns the correlation fields stored in ctx.
func FieldsFrom(ctx context.Context) Fields {
	if ctx == nil {
		return Fields{}
	}
	f, _ := ctx.Value(fieldsKey{}).(Fields)
	return f
}

func withFields(ctx context.Context, fn func(*Fields)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	f := FieldsFrom(ctx)
	fn(&f)
	return context.WithValue(ctx, fieldsKey{}, f)
}

// WithRID attaches a request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return withFields(ctx, func(f *Fields) { f.RID = rid })
}

// WithUpdate attaches the identifiers of the Telegram update being handled.
func WithUpdate(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return withFields(ctx, func(f *Fields) {
		f.UpdateID = updateID
		f.UserID = userID
		f.ChatID = chatID
	})
}

// WithHandler records which handler serves the update.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		return ctx
	}
	return withFields(ctx, func(f *Fields) { f.Handler = handler })
}

// WithTrace attaches a trace id spanning one dialogue transition.
func WithTrace(ctx context.Context, traceID string) context.Context {
	return withFields(ctx, func(f *Fields) { f.TraceID = traceID })
}

// WithSession tags logs with the dialogue session and its current state.
func WithSession(ctx context.Context, sessionID int64, state string) context.Context {
	return withFields(ctx, func(f *Fields) {
		f.SessionID = sessionID
		f.State = state
	})
}

// WithLogger stores log in ctx for downstream helpers.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, log)
}

// FromContext returns the logger stored in ctx or the global one.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// each reports the non-zero fields under their log keys.
func (f Fields) each(fn func(key string, v any)) {
	if f.RID != "" {
		fn("rid", f.RID)
	}
	if f.TraceID != "" {
		fn("trace_id", f.TraceID)
	}
	if f.UpdateID != 0 {
		fn("update_id", int64(f.UpdateID))
	}
	if f.UserID != 0 {
		fn("user_id", f.UserID)
	}
	if f.ChatID != 0 {
		fn("chat_id", f.ChatID)
	}
	if f.Handler != "" {
		fn("handler", f.Handler)
	}
	if f.SessionID != 0 {
		fn("session_id", f.SessionID)
	}
	if f.State != "" {
		fn("state", f.State)
	}
}
