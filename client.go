package httplog

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ClientOption configures NewClient.
type ClientOption func(*clientConfig)

type clientConfig struct {
	base         http.RoundTripper
	timeout      time.Duration
	logRequests  bool
	logResponses bool
	logOpts      []Option
	tracer       trace.Tracer
}

// WithLogRequests installs a request logger.
func WithLogRequests(enabled bool) ClientOption {
	return func(c *clientConfig) {
		c.logRequests = enabled
	}
}

// WithLogResponses installs a response logger.
func WithLogResponses(enabled bool) ClientOption {
	return func(c *clientConfig) {
		c.logResponses = enabled
	}
}

// WithLogOptions sets the options both loggers are built with.
func WithLogOptions(opts ...Option) ClientOption {
	return func(c *clientConfig) {
		c.logOpts = append(c.logOpts, opts...)
	}
}

// WithBaseTransport sets the transport performing the round trips.
func WithBaseTransport(rt http.RoundTripper) ClientOption {
	return func(c *clientConfig) {
		c.base = rt
	}
}

// WithTimeout sets http.Client.Timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithTracer wraps each round trip in a span started from tracer.
func WithTracer(tracer trace.Tracer) ClientOption {
	return func(c *clientConfig) {
		c.tracer = tracer
	}
}

// NewClient returns an http.Client logging requests and/or responses as
// configured. Without WithLogRequests or WithLogResponses it behaves like a
// plain client over the base transport.
func NewClient(opts ...ClientOption) *http.Client {
	var cfg clientConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	var mws []Middleware
	if cfg.logRequests {
		mws = append(mws, NewRequestLogger(cfg.logOpts...))
	}
	if cfg.logResponses {
		mws = append(mws, NewResponseLogger(cfg.logOpts...))
	}

	return &http.Client{
		Transport: &Transport{
			Base:        cfg.base,
			Middlewares: mws,
			Tracer:      cfg.tracer,
		},
		Timeout: cfg.timeout,
	}
}
