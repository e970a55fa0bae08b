package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// HTTPError is returned for non-2xx responses. Body holds the raw response
// payload, which may be empty.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d from %s %s", e.StatusCode, e.Method, e.URL)
}

// ResponseBody returns the error payload carried by err, or nil when err
// did not come from an HTTP response.
func ResponseBody(err error) []byte {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Body
	}
	return nil
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// ErrorField extracts a non-empty top-level "error" member from a JSON
// object body, e.g. {"error": "Invalid PIN"}.
func ErrorField(body []byte) (string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", false
	}
	raw, ok := obj["error"]
	if !ok {
		return "", false
	}
	msg := stringify(raw)
	return msg, msg != ""
}

// PlainMessage reports whether body is a bare message rather than a
// structured document: either a JSON string or non-JSON text.
func PlainMessage(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", false
	}
	if !json.Valid(trimmed) {
		return string(body), true
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s, true
		}
	}
	return "", false
}

// FlattenMessages joins every message in a validation body such as
// {"email": ["Enter a valid email."], "phone": ["Required."]} into one
// space-separated string. Fields keep their document order; list values
// are expanded one level. A top-level list such as ["Already registered."]
// is joined the same way. Other bodies yield "".
func FlattenMessages(body []byte) string {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return ""
	}
	isObject := tok == json.Delim('{')
	if !isObject && tok != json.Delim('[') {
		return ""
	}

	var parts []string
	for dec.More() {
		if isObject {
			if _, err := dec.Token(); err != nil {
				break
			}
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			break
		}
		parts = appendMessages(parts, raw)
	}
	return strings.Join(parts, " ")
}

// appendMessages adds raw to parts, expanding a list one level.
func appendMessages(parts []string, raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			for _, item := range items {
				parts = append(parts, stringify(item))
			}
			return parts
		}
	}
	return append(parts, stringify(raw))
}

// stringify renders a JSON value as message text: strings unquoted, null
// empty, lists comma-joined, everything else as compact JSON.
func stringify(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case 'n':
		return ""
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			out := make([]string, len(items))
			for i, item := range items {
				out[i] = stringify(item)
			}
			return strings.Join(out, ",")
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
