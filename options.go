package httplog

import (
	"cdr.dev/slog"
	"github.com/coder/quartz"

	"github.com/coder/httplog/metrics"
)

// Option configures a request or response logger.
type Option func(*options)

type options struct {
	logger        slog.Logger
	level         Level
	secretHeaders []string
	metrics       *metrics.Metrics
	clock         quartz.Clock
	body          bodyRenderer
}

func newOptions(opts []Option) options {
	o := options{
		logger: slog.Make(),
		level:  LevelDebug,
		clock:  quartz.NewReal(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithLogger sets the logger lines are written to. Lines are written under
// the "httplog" name. Defaults to a logger without sinks.
func WithLogger(logger slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLevel sets the severity of emitted lines. Defaults to LevelDebug.
func WithLevel(level Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithSecretHeaders replaces the set of header names whose values are
// masked. Defaults to DefaultSecretHeaders.
func WithSecretHeaders(headers ...string) Option {
	return func(o *options) {
		o.secretHeaders = append([]string(nil), headers...)
	}
}

// WithMetrics enables metrics collection.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithClock sets the clock used to time exchanges.
func WithClock(clk quartz.Clock) Option {
	return func(o *options) {
		o.clock = clk
	}
}

// WithPrettyJSON indents JSON bodies. Other bodies are logged as-is.
func WithPrettyJSON() Option {
	return func(o *options) {
		o.body.prettyJSON = true
	}
}

// WithBodyFieldMasking masks the string values found at the given
// gjson paths (e.g. "api_key" or "auth.token") in JSON bodies.
// Only the logged text is affected.
func WithBodyFieldMasking(paths ...string) Option {
	return func(o *options) {
		o.body.maskFields = append([]string(nil), paths...)
	}
}

// WithMaxBodyBytes caps the logged body text at n bytes. Zero means no cap.
// Only the logged text is affected.
func WithMaxBodyBytes(n int) Option {
	return func(o *options) {
		o.body.maxBytes = n
	}
}
