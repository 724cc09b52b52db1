package httplog

import (
	"fmt"
	"strings"
)

const (
	bearerPrefix = "Bearer "
	maskMarker   = "..."
	// maskFailed replaces a secret that could not be masked.
	maskFailed = "Failed to mask the API key."

	// Secrets at least this long keep their first maskHead and last
	// maskTail characters; shorter ones are replaced entirely.
	maskMinLen = 7
	maskHead   = 5
	maskTail   = 2
)

// DefaultSecretHeaders returns the header names masked when no registry is
// configured. Names are lower-case.
func DefaultSecretHeaders() []string {
	return []string{"authorization", "x-api-key", "x-auth-token"}
}

// Masker redacts values of secret headers. The registry is fixed at
// construction, so a Masker is safe for concurrent use.
type Masker struct {
	secret map[string]struct{}
	// redact masks a whole secret; maskSecret outside tests.
	redact func(string) string
}

// NewMasker returns a Masker treating the given header names as secret,
// matched case-insensitively. With no names, DefaultSecretHeaders is used.
func NewMasker(headers ...string) *Masker {
	if len(headers) == 0 {
		headers = DefaultSecretHeaders()
	}
	secret := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		secret[h] = struct{}{}
	}
	return &Masker{secret: secret, redact: maskSecret}
}

// IsSecret reports whether values of the named header are masked.
func (m *Masker) IsSecret(name string) bool {
	_, ok := m.secret[strings.ToLower(name)]
	return ok
}

// Mask returns value redacted if name is a secret header, and value
// unchanged otherwise. Blank values are never masked.
//
// A secret keeps at most its first 5 and last 2 characters, e.g.
// "sk_live_1234567890" becomes "sk_li...90". Secrets shorter than 7
// characters become "...". A leading "Bearer " is kept as is.
func (m *Masker) Mask(name, value string) string {
	res := m.mask(name, value)
	if res.err != nil {
		return maskFailed
	}
	return res.value
}

type maskResult struct {
	value string
	err   error
}

func (m *Masker) mask(name, value string) (res maskResult) {
	if strings.TrimSpace(value) == "" || !m.IsSecret(name) {
		return maskResult{value: value}
	}

	defer func() {
		if r := recover(); r != nil {
			res = maskResult{err: fmt.Errorf("mask %q header: %v", name, r)}
		}
	}()

	if token, ok := strings.CutPrefix(value, bearerPrefix); ok {
		return maskResult{value: bearerPrefix + m.redact(token)}
	}
	return maskResult{value: m.redact(value)}
}

// maskSecret counts characters, not bytes, so a multi-byte rune is never split.
func maskSecret(s string) string {
	r := []rune(s)
	if len(r) < maskMinLen {
		return maskMarker
	}
	return string(r[:maskHead]) + maskMarker + string(r[len(r)-maskTail:])
}
