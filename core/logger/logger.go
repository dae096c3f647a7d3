// Package logger provides the process-wide structured logger. Events are
// logged as component plus event name with slog attributes, and correlation
// data travels in the context.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/geobot/core/buildinfo"
	coreconfig "github.com/m3rciful/geobot/core/config"
)

const defaultDebugSample = "1/50"

var (
	initOnce sync.Once
	stopOnce sync.Once

	writer  *lineWriter
	closers []io.Closer

	levelVar slog.LevelVar

	debugSampler = newSampler(1, 50)
	traceAll     bool

	// L is the root logger. It stays nil until InitLogger runs, and the
	// package helpers are no-ops until then.
	L *slog.Logger
)

// InitLogger configures the global logger from cfg. Only the first call has effect.
func InitLogger(cfg *coreconfig.Config) error {
	var initErr error
	initOnce.Do(func() {
		if cfg == nil {
			cfg = &coreconfig.Config{}
		}
		opts := cfg.Logging
		levelVar.Set(parseLevel(opts.Level))
		debugSampler.Set(parseRatio(firstNonEmpty(opts.DebugSample, defaultDebugSample)))
		traceAll = truthy(os.Getenv("TRACE")) || truthy(os.Getenv("LOG_TRACE"))

		outputs, files, err := openOutputs(opts)
		if err != nil {
			initErr = err
			return
		}
		closers = files
		writer = newLineWriter(outputs, 64*1024)

		L = slog.New(newLineHandler(handlerConfig{
			level:    &levelVar,
			writer:   writer,
			format:   parseFormat(opts),
			keyOrder: parseKeyOrder(opts.KeysOrder),
		}))
		slog.SetDefault(L)

		Info(context.Background(), "app", "startup",
			slog.String("go_version", runtime.Version()),
			slog.String("build_version", buildinfo.Version),
			slog.String("build_commit", buildinfo.Commit),
			slog.String("build_time", buildinfo.Date),
			slog.String("cfg_profile", profile(opts)),
		)
	})
	return initErr
}

// Shutdown flushes queued lines and closes log files.
func Shutdown() error {
	var errs []error
	stopOnce.Do(func() {
		if writer != nil {
			errs = append(errs, writer.Flush(), writer.Close())
		}
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
	})
	return errors.Join(errs...)
}

func parseFormat(opts coreconfig.LoggingConfig) logFormat {
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	switch profile(opts) {
	case "debug", "dev":
		return formatKV
	}
	return formatJSON
}

func parseKeyOrder(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return defaultKeyOrder
	}
	var order []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			order = append(order, k)
		}
	}
	if len(order) == 0 {
		return defaultKeyOrder
	}
	return order
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// openOutputs returns stdout plus the optional log file.
func openOutputs(opts coreconfig.LoggingConfig) ([]io.Writer, []io.Closer, error) {
	outputs := []io.Writer{os.Stdout}
	dir := strings.TrimSpace(opts.Dir)
	name := strings.TrimSpace(opts.BotFile)
	if dir == "" || name == "" {
		return outputs, nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("logger: create dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: open %s: %w", path, err)
	}
	return append(outputs, f), []io.Closer{f}, nil
}

func profile(opts coreconfig.LoggingConfig) string {
	return strings.ToLower(firstNonEmpty(strings.TrimSpace(opts.Profile), "prod"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// Background returns a fresh root context for logging outside a request.
func Background() context.Context {
	return context.Background()
}

// Component returns L scoped to component, or nil before InitLogger.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// LogEvent writes event through log, falling back to the context logger.
func LogEvent(ctx context.Context, log *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if log == nil {
		log = FromContext(ctx)
	}
	if log == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	log.LogAttrs(ctx, level, "", attrs...)
}

func emit(ctx context.Context, component string, level slog.Level, event string, attrs []slog.Attr) {
	LogEvent(ctx, Component(component), level, event, attrs...)
}

// Debug logs a debug-level event for component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelDebug, event, attrs)
}

// Info logs an info-level event for component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelInfo, event, attrs)
}

// Warn logs a warn-level event for component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelWarn, event, attrs)
}

// Error logs an error-level event for component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelError, event, attrs)
}

// ShouldSampleDebug reports whether a high-volume debug event should be
// logged. TRACE=1 disables sampling.
func ShouldSampleDebug() bool {
	return traceAll || debugSampler.Allow()
}
