package logger

import "strings"

// vocabulary maps accepted spellings of an enumerated field to its canonical value.
type vocabulary map[string]string

func (v vocabulary) canonical(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	c, ok := v[s]
	return c, ok
}

var levels = vocabulary{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
	"fatal":   "FATAL",
}

var statuses = vocabulary{
	"ok":           "ok",
	"fail":         "fail",
	"skip":         "skip",
	"retry":        "retry",
	"rate_limited": "rate_limited",
	"cancelled":    "cancelled",
}

// outcomes describe how an external adapter call ended.
var outcomes = vocabulary{
	"ok":           "ok",
	"fail":         "fail",
	"cancelled":    "cancelled",
	"rate_limited": "rate_limited",
	"not_found":    "not_found",
}

func levelName(level string) string {
	if c, ok := levels.canonical(level); ok {
		return c
	}
	if level == "" {
		return "INFO"
	}
	return strings.ToUpper(level)
}

// normalizeEnums canonicalises level and status and drops unknown outcomes.
// Unknown statuses are kept as written.
func normalizeEnums(fields map[string]any) {
	if level, ok := fields["level"].(string); ok {
		fields["level"] = levelName(level)
	}
	if status, ok := fields["status"].(string); ok {
		if c, known := statuses.canonical(status); known {
			fields["status"] = c
		}
	}
	if outcome, ok := fields["outcome"].(string); ok {
		if c, known := outcomes.canonical(outcome); known {
			fields["outcome"] = c
		} else {
			delete(fields, "outcome")
		}
	}
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"trace_id",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"op",
	"cb_key",
	"session_id",
	"state",
	"from",
	"to",
	"input",
	"adapter",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"count",
	"sessions",
	"payload",
	"lang",
	"username",
	"mode",
	"listen",
	"http_code",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"cause",
	"retryable",
	"attempts",
	"backoff_ms",
	"pending_count",
}
