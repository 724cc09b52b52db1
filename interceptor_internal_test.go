package httplog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"cdr.dev/slog"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/coder/httplog/internal/testutil"
	"github.com/coder/httplog/metrics"
)

func okResponse(*http.Request) (*http.Response, error) {
	return &http.Response{StatusCode: http.StatusOK, Status: "200 OK", Header: http.Header{}, Body: http.NoBody}, nil
}

func TestLoggers_PanickingSink(t *testing.T) {
	t.Parallel()

	logger := slog.Make(panicSink{}).Leveled(slog.LevelDebug)
	reqLogger := NewRequestLogger(WithLogger(logger))
	respLogger := NewResponseLogger(WithLogger(logger))

	t.Run("exchange", func(t *testing.T) {
		t.Parallel()

		req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, "http://localhost/", strings.NewReader("hello"))
		require.NoError(t, err)

		var resp *http.Response
		require.NotPanics(t, func() {
			resp, err = reqLogger(req, func(r *http.Request) (*http.Response, error) {
				return respLogger(r, okResponse)
			})
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()

		req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, "http://localhost/", nil)
		require.NoError(t, err)

		require.NotPanics(t, func() {
			_, err = respLogger(req, func(*http.Request) (*http.Response, error) {
				return nil, errBoom
			})
		})
		require.ErrorIs(t, err, errBoom)
	})
}

func TestLoggers_NonUTF8Method(t *testing.T) {
	t.Parallel()

	m := metrics.NewMetrics(prometheus.NewRegistry())
	logger, sink := testutil.NewLogger(t)
	reqLogger := NewRequestLogger(WithLogger(logger), WithMetrics(m))
	respLogger := NewResponseLogger(WithLogger(logger), WithMetrics(m))

	req := &http.Request{
		Method: "G\xffT",
		URL:    &url.URL{Scheme: "http", Host: "localhost", Path: "/"},
		Header: http.Header{},
	}

	var err error
	require.NotPanics(t, func() {
		_, err = reqLogger(req, func(r *http.Request) (*http.Response, error) {
			return respLogger(r, okResponse)
		})
	})
	require.NoError(t, err)

	sink.RequireMessages(t, slog.LevelDebug, 2)
	require.Equal(t, 1.0, promtest.ToFloat64(m.ExchangeCount.WithLabelValues(metrics.DirectionRequest, metrics.MethodOther)))
	require.Equal(t, 1.0, promtest.ToFloat64(m.ExchangeCount.WithLabelValues(metrics.DirectionResponse, metrics.MethodOther)))
}

func TestLoggers_BrokenMetrics(t *testing.T) {
	t.Parallel()

	// No collectors: every Record call panics.
	m := &metrics.Metrics{}
	logger, sink := testutil.NewLogger(t)
	mw := NewRequestLogger(WithLogger(logger), WithMetrics(m))

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, "http://localhost/", nil)
	require.NoError(t, err)

	require.NotPanics(t, func() {
		_, err = mw(req, okResponse)
	})
	require.NoError(t, err)

	sink.RequireMessages(t, slog.LevelDebug, 1)
	require.Equal(t, []string{"failed to record request metrics"}, sink.Messages(slog.LevelWarn))
}

func TestLoggers_MaskFailure(t *testing.T) {
	t.Parallel()

	m := metrics.NewMetrics(prometheus.NewRegistry())
	logger, sink := testutil.NewLogger(t)
	l := newExchangeLogger([]Option{WithLogger(logger), WithMetrics(m)})
	l.masker.redact = func(string) string { panic("redaction exploded") }

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, "http://localhost/", strings.NewReader("hello"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer sk_live_1234567890")
	req.Header.Set("X-Custom", "plainvalue")

	l.logRequest(req)

	lines := sink.RequireMessages(t, slog.LevelDebug, 1)
	require.Contains(t, lines[0], "- headers: [Authorization: "+maskFailed+"], [X-Custom: plainvalue]\n")
	require.NotContains(t, lines[0], "sk_live_1234567890")

	warnings := sink.EntriesAt(slog.LevelWarn)
	require.Len(t, warnings, 1)
	require.Equal(t, "degraded request log", warnings[0].Message)
	errField, ok := testutil.Field(warnings[0], "error")
	require.True(t, ok)
	require.Contains(t, fmt.Sprint(errField), "redaction exploded")

	resp := &http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Header:     http.Header{"X-Api-Key": {"sk_live_1234567890"}},
		Body:       http.NoBody,
	}
	l.logResponse(context.Background(), req, resp, 0)
	require.Len(t, sink.EntriesAt(slog.LevelWarn), 2)

	require.Equal(t, 1.0, promtest.ToFloat64(m.DegradedCount.WithLabelValues(metrics.DirectionRequest, metrics.DegradedReasonMask)))
	require.Equal(t, 1.0, promtest.ToFloat64(m.DegradedCount.WithLabelValues(metrics.DirectionResponse, metrics.DegradedReasonMask)))
	// The line itself still counts.
	require.Equal(t, 1.0, promtest.ToFloat64(m.ExchangeCount.WithLabelValues(metrics.DirectionRequest, http.MethodPost)))
}
