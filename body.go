package httplog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

const (
	requestBodyFailed  = "[Exception happened while reading request body. Check logs for more details.]"
	responseBodyFailed = "[Exception happened while reading response body. Check logs for more details.]"
	bodyTruncated      = "... [truncated]"
)

type bodyResult struct {
	data []byte
	err  error
}

// readRequestBody drains req.Body and puts back a reader replaying the same
// bytes, so the next stage still sends the full body.
func readRequestBody(req *http.Request) bodyResult {
	if req == nil || req.Body == nil || req.Body == http.NoBody {
		return bodyResult{}
	}

	data, err := io.ReadAll(req.Body)
	// The body is drained; the replay below is what gets sent, so a close
	// error has nothing left to affect.
	_ = req.Body.Close()
	req.Body = replayBody(data, err)
	if err != nil {
		return bodyResult{data: data, err: fmt.Errorf("read request body: %w", err)}
	}
	return bodyResult{data: data}
}

// readResponseBody drains resp.Body and puts back a reader replaying the
// same bytes, so the caller still receives a readable response.
func readResponseBody(resp *http.Response) bodyResult {
	if resp == nil || resp.Body == nil || resp.Body == http.NoBody {
		return bodyResult{}
	}

	data, err := io.ReadAll(resp.Body)
	// Closing releases the connection. The caller reads the replay and never
	// sees this body again, so its close error is dropped.
	_ = resp.Body.Close()
	resp.Body = replayBody(data, err)
	if err != nil {
		return bodyResult{data: data, err: fmt.Errorf("read response body: %w", err)}
	}
	return bodyResult{data: data}
}

// replayBody returns a body yielding data, then readErr if it is non-nil, so
// a consumer downstream observes the same failure the logger did.
func replayBody(data []byte, readErr error) io.ReadCloser {
	if readErr == nil {
		return io.NopCloser(bytes.NewReader(data))
	}
	return io.NopCloser(io.MultiReader(bytes.NewReader(data), errReader{err: readErr}))
}

type errReader struct {
	err error
}

func (r errReader) Read([]byte) (int, error) {
	return 0, r.err
}

// bodyRenderer turns raw body bytes into the text that goes in a log line.
type bodyRenderer struct {
	prettyJSON bool
	maskFields []string
	maxBytes   int
}

func (b bodyRenderer) render(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(b.maskFields) > 0 {
		data = maskJSONFields(data, b.maskFields)
	}
	if b.prettyJSON {
		data = prettyPrintJSON(data)
	}

	text := strings.ToValidUTF8(string(data), "\uFFFD")
	if b.maxBytes > 0 && len(text) > b.maxBytes {
		// Cutting may split a rune; drop the broken tail.
		text = strings.ToValidUTF8(text[:b.maxBytes], "") + bodyTruncated
	}
	return text
}

// maskJSONFields masks the string values found at the given gjson paths.
// Bodies that are not valid JSON are returned unchanged.
func maskJSONFields(body []byte, paths []string) []byte {
	if !gjson.ValidBytes(body) {
		return body
	}

	out := bytes.Clone(body)
	for _, path := range paths {
		res := gjson.GetBytes(out, path)
		if !res.Exists() || res.Type != gjson.String {
			continue
		}
		masked, err := sjson.SetBytes(out, path, maskSecret(res.String()))
		if err != nil {
			continue
		}
		out = masked
	}
	return out
}

// prettyPrintJSON returns indented JSON if body is valid JSON, otherwise returns body as-is.
// Unlike json.MarshalIndent, this preserves the original key order.
func prettyPrintJSON(body []byte) []byte {
	result := pretty.Pretty(body)
	// pretty.Pretty mangles invalid JSON rather than failing.
	if !json.Valid(result) {
		return body
	}
	return bytes.TrimSuffix(result, []byte("\n"))
}
