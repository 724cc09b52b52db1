package httplog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cdr.dev/slog"
	"github.com/coder/quartz"
	"github.com/hashicorp/go-multierror"

	"github.com/coder/httplog/metrics"
)

const (
	requestFormat  = "Request:\n- method: %s\n- url: %s\n- headers: %s\n- body: %s"
	responseFormat = "Response:\n - statuscode: %s\n - headers: %s - body: %s"

	statusFailed = "[Exception happened while reading response status. Check logs for more details.]"
)

// NewRequestLogger returns a middleware that logs every outbound request,
// then forwards it unchanged to the next stage.
func NewRequestLogger(opts ...Option) Middleware {
	l := newExchangeLogger(opts)
	return func(req *http.Request, next MiddlewareNext) (*http.Response, error) {
		l.logRequest(req)
		return next(req)
	}
}

// NewResponseLogger returns a middleware that logs every response once the
// next stage returns it. The response body is buffered for logging and
// replayed, so the caller can still read it in full.
func NewResponseLogger(opts ...Option) Middleware {
	l := newExchangeLogger(opts)
	return func(req *http.Request, next MiddlewareNext) (*http.Response, error) {
		start := l.clock.Now()
		resp, err := next(req)
		if err != nil {
			ctx := req.Context()
			l.emitter.debug(ctx, "exchange failed", append(exchangeFields(ctx),
				slog.F("url", urlString(req)),
				slog.Error(err),
			)...)
			return resp, err
		}

		l.logResponse(req.Context(), req, resp, l.clock.Since(start))
		return resp, nil
	}
}

// exchangeLogger holds what the request and response middlewares share.
// Everything it logs goes through emitter.
type exchangeLogger struct {
	emitter emitter
	masker  *Masker
	body    bodyRenderer
	metrics *metrics.Metrics
	clock   quartz.Clock
}

func newExchangeLogger(opts []Option) *exchangeLogger {
	o := newOptions(opts)
	return &exchangeLogger{
		emitter: newEmitter(o.logger.Named("httplog"), o.level),
		masker:  NewMasker(o.secretHeaders...),
		body:    o.body,
		metrics: o.metrics,
		clock:   o.clock,
	}
}

func (l *exchangeLogger) logRequest(req *http.Request) {
	ctx := req.Context()
	var (
		merr *multierror.Error
		size int
	)

	ok := l.emitter.emit(ctx, "failed to log request", func() (string, []any) {
		headers, err := l.masker.formatHeaders(req.Header)
		if err != nil {
			merr = multierror.Append(merr, err)
			l.metrics.RecordDegraded(metrics.DirectionRequest, metrics.DegradedReasonMask)
		}

		body := readRequestBody(req)
		size = len(body.data)
		bodyText := requestBodyFailed
		if body.err == nil {
			bodyText = l.body.render(body.data)
		} else {
			merr = multierror.Append(merr, body.err)
			l.metrics.RecordDegraded(metrics.DirectionRequest, metrics.DegradedReasonBody)
		}

		msg := fmt.Sprintf(requestFormat, req.Method, urlString(req), headers, bodyText)
		return msg, append(exchangeFields(ctx),
			slog.F("method", req.Method),
			slog.F("url", urlString(req)),
		)
	})
	l.finish(ctx, metrics.DirectionRequest, req.Method, size, ok, merr)
}

func (l *exchangeLogger) logResponse(ctx context.Context, req *http.Request, resp *http.Response, elapsed time.Duration) {
	var (
		merr *multierror.Error
		size int
	)

	ok := l.emitter.emit(ctx, "failed to log response", func() (string, []any) {
		status := resolveStatus(resp)
		if status.err != nil {
			merr = multierror.Append(merr, status.err)
			l.metrics.RecordDegraded(metrics.DirectionResponse, metrics.DegradedReasonStatus)
		}

		var header http.Header
		if resp != nil {
			header = resp.Header
		}
		headers, err := l.masker.formatHeaders(header)
		if err != nil {
			merr = multierror.Append(merr, err)
			l.metrics.RecordDegraded(metrics.DirectionResponse, metrics.DegradedReasonMask)
		}

		body := readResponseBody(resp)
		size = len(body.data)
		bodyText := responseBodyFailed
		if body.err == nil {
			bodyText = l.body.render(body.data)
		} else {
			merr = multierror.Append(merr, body.err)
			l.metrics.RecordDegraded(metrics.DirectionResponse, metrics.DegradedReasonBody)
		}

		msg := fmt.Sprintf(responseFormat, status.text, headers, bodyText)
		fields := append(exchangeFields(ctx),
			slog.F("url", urlString(req)),
			slog.F("duration", elapsed),
		)
		if status.err == nil {
			fields = append(fields, slog.F("status_code", resp.StatusCode))
		}
		return msg, fields
	})
	l.finish(ctx, metrics.DirectionResponse, req.Method, size, ok, merr)
}

// finish records the outcome of one emission and warns once about every
// placeholder that went into the line.
func (l *exchangeLogger) finish(ctx context.Context, direction, method string, size int, ok bool, merr *multierror.Error) {
	l.emitter.guard(ctx, "failed to record "+direction+" metrics", func() {
		if !ok {
			l.metrics.RecordDegraded(direction, metrics.DegradedReasonPanic)
			return
		}
		l.metrics.RecordExchange(direction, method, size)
	})
	if !ok {
		return
	}
	if err := merr.ErrorOrNil(); err != nil {
		l.emitter.warn(ctx, "degraded "+direction+" log", slog.Error(err))
	}
}

type statusResult struct {
	text string
	err  error
}

// resolveStatus renders the status as "<code>:<reason>". The reason is taken
// from the status line; when the line has none, the standard text is used.
func resolveStatus(resp *http.Response) statusResult {
	if resp == nil {
		return statusResult{text: statusFailed, err: errors.New("read response status: nil response")}
	}
	if resp.StatusCode < 100 || resp.StatusCode > 999 {
		return statusResult{text: statusFailed, err: fmt.Errorf("read response status: invalid status code %d", resp.StatusCode)}
	}

	code := strconv.Itoa(resp.StatusCode)
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, code))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return statusResult{text: code + ":" + reason}
}

func urlString(req *http.Request) string {
	if req == nil || req.URL == nil {
		return ""
	}
	return req.URL.String()
}
