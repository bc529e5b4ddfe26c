// Package reply turns an automation endpoint response into a safe HTML fragment
// ready to be inserted into a mail item.
package reply

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// EmptyReplyError reports a response that carries no usable content
type EmptyReplyError struct {
	Raw string
}

func (e *EmptyReplyError) Error() string {
	return "no replyHtml/replyText in webhook response"
}

// IsEmptyReplyError reports whether err (or any error in its chain) is an EmptyReplyError.
func IsEmptyReplyError(err error) bool {
	var emptyErr *EmptyReplyError
	return errors.As(err, &emptyErr)
}

// Envelope field names the automation endpoint may answer with
const (
	FieldHTML = "replyHtml"
	FieldText = "replyText"
)

var (
	quotedStart = regexp.MustCompile(`^"\s*<`)
	quotedEnd   = regexp.MustCompile(`>\s*"$`)
)

// Interpret converts a raw response body into renderable HTML.
//
// A JSON object with replyHtml is used verbatim, replyText is wrapped in a div
// with line breaks. Anything that is not a JSON object is treated as plain text,
// except a JSON-quoted HTML document, which loses one layer of string escaping.
func Interpret(raw string) (string, error) {
	out, ok := fromEnvelope(raw)
	if !ok {
		if trimmed := strings.TrimSpace(raw); isQuotedHTML(trimmed) {
			out = trimmed
		} else {
			out = wrapText(raw)
		}
	}

	out = unquoteHTML(out)

	if strings.TrimSpace(out) == "" {
		return "", &EmptyReplyError{Raw: raw}
	}
	return out, nil
}

// fromEnvelope extracts content from a JSON object body. ok is false when the
// body is not a JSON object.
func fromEnvelope(raw string) (string, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil || obj == nil {
		return "", false
	}

	if s := stringify(obj[FieldHTML]); s != "" {
		return s, true
	}
	if s := stringify(obj[FieldText]); s != "" {
		return wrapText(s), true
	}
	return "", true
}

// stringify renders a JSON field value the way a loosely-typed producer meant it
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if !val {
			return ""
		}
		return "true"
	case float64:
		if val == 0 {
			return ""
		}
		return fmt.Sprint(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// wrapText turns plain text into a div with <br> line breaks
func wrapText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return "<div>" + strings.ReplaceAll(text, "\n", "<br>") + "</div>"
}

func isQuotedHTML(s string) bool {
	return quotedStart.MatchString(s) && quotedEnd.MatchString(s)
}

// unquoteHTML removes one layer of JSON string encoding from an accidentally
// double-encoded HTML document. Undecodable input is returned unchanged.
func unquoteHTML(s string) string {
	if !isQuotedHTML(s) {
		return s
	}
	var decoded string
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return s
	}
	return decoded
}
