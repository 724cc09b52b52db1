package httplog

import (
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/coder/httplog/tracing"
)

// Transport is an [http.RoundTripper] running each round trip through a
// chain of middlewares before Base.
//
// Every round trip gets an exchange id (see WithExchangeID) unless the
// request context already carries one, so the request and response lines of
// one exchange can be correlated.
type Transport struct {
	// Base performs the actual round trip. Defaults to http.DefaultTransport.
	Base http.RoundTripper
	// Middlewares run in order; the first one is the outermost. Nil entries
	// are skipped.
	Middlewares []Middleware
	// Tracer, if set, wraps each round trip in a client span.
	Tracer trace.Tracer
}

var _ http.RoundTripper = &Transport{}

// NewTransport returns a Transport running mws around base.
func NewTransport(base http.RoundTripper, mws ...Middleware) *Transport {
	return &Transport{Base: base, Middlewares: mws}
}

func (t *Transport) RoundTrip(req *http.Request) (_ *http.Response, outErr error) {
	ctx := req.Context()
	id, ok := ExchangeIDFromContext(ctx)
	if !ok {
		id = uuid.New()
		ctx = WithExchangeID(ctx, id)
	}

	ctx, span := t.tracer().Start(ctx, "httplog.RoundTrip",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(tracing.ExchangeID, id.String()),
			attribute.String(tracing.Method, req.Method),
			attribute.String(tracing.URL, redactedURL(req)),
		),
	)
	defer tracing.EndSpanErr(span, &outErr)

	resp, err := t.chain()(req.WithContext(ctx))
	if resp != nil {
		span.SetAttributes(attribute.Int(tracing.StatusCode, resp.StatusCode))
	}
	return resp, err
}

// CloseIdleConnections closes idle connections of Base, if it supports it.
func (t *Transport) CloseIdleConnections() {
	type closeIdler interface {
		CloseIdleConnections()
	}
	if c, ok := t.base().(closeIdler); ok {
		c.CloseIdleConnections()
	}
}

func (t *Transport) chain() MiddlewareNext {
	next := t.base().RoundTrip
	for i := len(t.Middlewares) - 1; i >= 0; i-- {
		mw := t.Middlewares[i]
		if mw == nil {
			continue
		}
		inner := next
		next = func(req *http.Request) (*http.Response, error) {
			return mw(req, inner)
		}
	}
	return next
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) tracer() trace.Tracer {
	if t.Tracer != nil {
		return t.Tracer
	}
	return noop.NewTracerProvider().Tracer("")
}

func redactedURL(req *http.Request) string {
	if req.URL == nil {
		return ""
	}
	return req.URL.Redacted()
}
