package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// capture logs through a fresh handler and returns the written lines.
func capture(t *testing.T, format logFormat, component string, fn func(*slog.Logger)) []string {
	t.Helper()
	buf := &bytes.Buffer{}
	w := newLineWriter([]io.Writer{buf}, 1024)
	log := slog.New(newLineHandler(handlerConfig{
		level:  slog.LevelInfo,
		writer: w,
		format: format,
	})).With("component", component)
	fn(log)
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	out := strings.TrimSpace(buf.String())
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func TestLineHandlerKVOrder(t *testing.T) {
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdate(ctx, 42, 7, 9)

	lines := capture(t, formatKV, "app", func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelInfo, "test.event",
			slog.String("status", "OK"),
			slog.String("cause", "unit"),
		)
	})
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", lines)
	}
	tokens := strings.Split(lines[0], " ")
	expected := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), lines[0])
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestLineHandlerJSONOrder(t *testing.T) {
	ctx := WithRID(Background(), "rid-json")
	ctx = WithUpdate(ctx, 11, 22, 33)

	lines := capture(t, formatJSON, "dialog", func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelError, "transition.failed",
			slog.String("status", "fail"),
			slog.String("err", "boom"),
		)
	})
	line := lines[0]
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"dialog"`, `"event":"transition.failed"`, `"status":"fail"`, `"rid":"rid-json"`, `"ts_unix_nano":`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestLineHandlerCompactRID(t *testing.T) {
	ctx := WithRID(Background(), "123:456:789")
	kv := capture(t, formatKV, "app", func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelInfo, "rid.test")
	})
	if !strings.Contains(kv[0], "rid=3f.co.lx") {
		t.Fatalf("expected compact rid, got %s", kv[0])
	}
	if strings.Contains(kv[0], "rid_full=") {
		t.Fatalf("rid_full should be omitted in KV output, got %s", kv[0])
	}

	js := capture(t, formatJSON, "app", func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelInfo, "rid.test")
	})
	if !strings.Contains(js[0], `"rid":"3f.co.lx"`) || !strings.Contains(js[0], `"rid_full":"123:456:789"`) {
		t.Fatalf("expected compact and full rid in JSON, got %s", js[0])
	}
}

func TestLineHandlerSessionFields(t *testing.T) {
	ctx := WithSession(Background(), 501, "show_weather")
	lines := capture(t, formatKV, "dialog", func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelInfo, "transition",
			slog.String("state", "idle"),
			slog.Duration("duration", 1500*time.Microsecond),
		)
	})
	line := lines[0]
	if !strings.Contains(line, "session_id=501") {
		t.Fatalf("expected session id from context, got %s", line)
	}
	if !strings.Contains(line, "state=idle") || strings.Contains(line, "state=show_weather") {
		t.Fatalf("explicit state should win over context, got %s", line)
	}
	if !strings.Contains(line, "duration_ms=2") {
		t.Fatalf("expected rounded duration_ms, got %s", line)
	}
}

func TestLineHandlerAdapterOutcome(t *testing.T) {
	lines := capture(t, formatKV, "dialog", func(log *slog.Logger) {
		LogEvent(Background(), log, slog.LevelInfo, "adapter.call",
			slog.String("adapter", "geocoder"),
			slog.String("outcome", "not_found"),
		)
		LogEvent(Background(), log, slog.LevelInfo, "adapter.call",
			slog.String("adapter", "geocoder"),
			slog.String("outcome", "bogus"),
		)
	})
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", lines)
	}
	if !strings.Contains(lines[0], "outcome=not_found") {
		t.Fatalf("expected not_found outcome, got %s", lines[0])
	}
	if strings.Contains(lines[1], "outcome=") {
		t.Fatalf("unknown outcome should be dropped, got %s", lines[1])
	}
	if strings.Index(lines[0], "adapter=") > strings.Index(lines[0], "outcome=") {
		t.Fatalf("adapter should precede outcome, got %s", lines[0])
	}
}

func TestLineHandlerGroupsAndQuoting(t *testing.T) {
	lines := capture(t, formatKV, "app", func(log *slog.Logger) {
		log.WithGroup("http").Info("", slog.String("path", "/a b"), slog.Int("code", 200))
	})
	line := lines[0]
	if !strings.Contains(line, `http.path="/a b"`) || !strings.Contains(line, "http.code=200") {
		t.Fatalf("expected grouped and quoted attrs, got %s", line)
	}
	if !strings.Contains(line, "event=unknown") {
		t.Fatalf("expected event fallback, got %s", line)
	}
}

func TestLineHandlerWithoutWriter(t *testing.T) {
	h := newLineHandler(handlerConfig{})
	if err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "x", 0)); err != errNoWriter {
		t.Fatalf("expected errNoWriter, got %v", err)
	}
}
