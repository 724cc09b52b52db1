package httplog

import (
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// FormatHeaders renders headers on one line as "[Name: value]" entries
// joined by ", ", masking secret values. Entries are sorted by name for
// deterministic output. Only the first value of a multi-valued header is
// rendered.
func (m *Masker) FormatHeaders(h http.Header) string {
	s, _ := m.formatHeaders(h)
	return s
}

// formatHeaders is FormatHeaders that also reports every value which failed
// to mask. Failed values are rendered as maskFailed.
func (m *Masker) formatHeaders(h http.Header) (string, error) {
	var merr *multierror.Error
	entries := make([]string, 0, len(h))
	for _, name := range slices.Sorted(maps.Keys(h)) {
		var value string
		if values := h[name]; len(values) > 0 {
			value = values[0]
		}

		res := m.mask(name, value)
		if res.err != nil {
			merr = multierror.Append(merr, res.err)
			res.value = maskFailed
		}
		entries = append(entries, "["+name+": "+res.value+"]")
	}
	return strings.Join(entries, ", "), merr.ErrorOrNil()
}
