// Package testutil contains helpers for testing httplog: a slog sink
// capturing entries for assertions, and an upstream server replaying raw
// HTTP responses so tests control the exact status line.
package testutil
