// Package httplog logs outbound HTTP requests and responses.
//
// Loggers are plain middleware functions, compatible with the SDK
// WithMiddleware options of openai-go and anthropic-sdk-go, and can be
// installed on any [http.Client] through [Transport] or [NewClient].
//
// Values of headers registered as secret (by default Authorization,
// X-Api-Key and X-Auth-Token) are masked before they are written. Logging
// never changes the outcome of an exchange: every failure on the logging
// path degrades to a placeholder and a warning.
package httplog

import (
	"net/http"
	"strings"

	"cdr.dev/slog"
)

// MiddlewareNext is the function to call the next middleware or the actual request.
type MiddlewareNext = func(*http.Request) (*http.Response, error)

// Middleware is an HTTP middleware function compatible with SDK WithMiddleware options.
type Middleware = func(*http.Request, MiddlewareNext) (*http.Response, error)

// Level is the severity log lines are emitted at.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel parses a level name case-insensitively. Unknown names
// (including the empty string) resolve to LevelDebug.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelDebug
	}
}

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "DEBUG"
	}
}

// SlogLevel returns the cdr.dev/slog level matching l.
func (l Level) SlogLevel() slog.Level {
	switch l {
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
