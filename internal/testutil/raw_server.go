package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// ReceivedRequest captures a single request received by a [RawResponseServer].
type ReceivedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// RawResponseServer is an httptest.Server answering every request with the
// same raw HTTP response, written straight to the connection. Unlike
// http.ResponseWriter this keeps a custom reason phrase ("200 All Good").
type RawResponseServer struct {
	*httptest.Server

	raw []byte

	mu       sync.Mutex
	requests []ReceivedRequest
}

func NewRawResponseServer(t testing.TB, ctx context.Context, rawHTTPResponse []byte) *RawResponseServer {
	t.Helper()
	if ctx == nil {
		ctx = context.Background()
	}

	s := &RawResponseServer{raw: NormalizeRawResponse(rawHTTPResponse)}

	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			t.Errorf("read request body: %v", err)
			return
		}
		s.record(r, body)

		hj, ok := w.(http.Hijacker)
		if !ok {
			http.Error(w, "hijacking unsupported", http.StatusInternalServerError)
			return
		}
		conn, buf, err := hj.Hijack()
		if err != nil {
			t.Errorf("hijack connection: %v", err)
			return
		}
		defer conn.Close()

		_, _ = buf.Write(s.raw)
		_ = buf.Flush()
	}))
	srv.Config.BaseContext = func(_ net.Listener) context.Context {
		return ctx
	}
	srv.Start()
	t.Cleanup(srv.Close)

	s.Server = srv
	return s
}

func (s *RawResponseServer) record(r *http.Request, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, ReceivedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   bytes.Clone(body),
	})
}

// Requests returns a snapshot of requests received by this server.
func (s *RawResponseServer) Requests() []ReceivedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ReceivedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// NormalizeRawResponse turns a fixture written with LF line endings into a
// wire-format response: CRLF line endings in the head, a single trailing
// newline dropped from the body, and Content-Length and Connection: close
// headers added when missing.
func NormalizeRawResponse(raw []byte) []byte {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	head, body, _ := strings.Cut(text, "\n\n")
	body = strings.TrimSuffix(body, "\n")

	lines := strings.Split(strings.TrimRight(head, "\n"), "\n")
	has := func(name string) bool {
		for _, l := range lines[1:] {
			k, _, _ := strings.Cut(l, ":")
			if strings.EqualFold(strings.TrimSpace(k), name) {
				return true
			}
		}
		return false
	}
	if !has("Content-Length") {
		lines = append(lines, fmt.Sprintf("Content-Length: %d", len(body)))
	}
	if !has("Connection") {
		lines = append(lines, "Connection: close")
	}

	return []byte(strings.Join(lines, "\r\n") + "\r\n\r\n" + body)
}
