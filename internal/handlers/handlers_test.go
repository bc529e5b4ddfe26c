package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felo/reply-drafter/internal/drafter"
	"github.com/felo/reply-drafter/internal/host"
	"github.com/felo/reply-drafter/internal/reply"
	"github.com/felo/reply-drafter/internal/webhook"
)

type sourceFunc func(ctx context.Context, msg *host.MessageContext) (string, error)

func (f sourceFunc) Send(ctx context.Context, msg *host.MessageContext) (string, error) {
	return f(ctx, msg)
}

// setupTestHandlers creates a handlers instance with the given reply source
func setupTestHandlers(t *testing.T, source sourceFunc) http.Handler {
	t.Helper()

	var src drafter.ReplySource
	if source != nil {
		src = source
	}
	h := New(reply.NewNormalizer(reply.Options{}), src, nil)
	return h.Routes()
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// TestHealthz tests the liveness endpoint
func TestHealthz(t *testing.T) {
	rec := do(t, setupTestHandlers(t, nil), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

// TestNormalize tests the normalization endpoint
func TestNormalize(t *testing.T) {
	rec := do(t, setupTestHandlers(t, nil), http.MethodPost, "/api/normalize", `{"replyHtml":"<p>Hello</p><script>x()</script>"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got NormalizedReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, `<p style="font-size:13pt; mso-bidi-font-size:13pt;">Hello</p>`, got.HTML)
	assert.Equal(t, "Hello", got.Text)
}

// TestNormalize_EmptyReply tests that an empty reply is unprocessable
func TestNormalize_EmptyReply(t *testing.T) {
	rec := do(t, setupTestHandlers(t, nil), http.MethodPost, "/api/normalize", `{"replyHtml":""}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "no replyHtml/replyText")
}

// TestNormalize_MethodNotAllowed tests that only POST is routed
func TestNormalize_MethodNotAllowed(t *testing.T) {
	rec := do(t, setupTestHandlers(t, nil), http.MethodGet, "/api/normalize", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// TestReply tests forwarding a payload to the automation endpoint
func TestReply(t *testing.T) {
	var got *host.MessageContext
	router := setupTestHandlers(t, func(_ context.Context, msg *host.MessageContext) (string, error) {
		got = msg
		return "Thanks!", nil
	})

	body := `{"payload":{"itemId":"id1","subject":"Hi","from":"a@x.com","to":["b@x.com"],` +
		`"date":"2024-05-01T12:00:00.000Z","bodyPlainText":"hello","input":"be brief"}}`
	rec := do(t, router, http.MethodPost, "/api/reply", body)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "id1", got.ItemID)
	assert.Equal(t, []string{"b@x.com"}, got.To)
	assert.Equal(t, "be brief", got.Input)
	assert.Equal(t, 2024, got.Date.Year())

	var out NormalizedReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Contains(t, out.HTML, "Thanks!")
	assert.Equal(t, "Thanks!", out.Text)
}

// TestReply_Errors tests the error status codes of the reply endpoint
func TestReply_Errors(t *testing.T) {
	failing := func(context.Context, *host.MessageContext) (string, error) {
		return "", &webhook.NetworkError{StatusCode: 500, Body: "boom"}
	}
	empty := func(context.Context, *host.MessageContext) (string, error) {
		return `{"replyText":""}`, nil
	}

	tests := []struct {
		name   string
		source sourceFunc
		body   string
		want   int
	}{
		{name: "no endpoint", source: nil, body: `{}`, want: http.StatusServiceUnavailable},
		{name: "invalid payload", source: empty, body: `not json`, want: http.StatusBadRequest},
		{name: "endpoint failure", source: failing, body: `{"payload":{}}`, want: http.StatusBadGateway},
		{name: "empty reply", source: empty, body: `{"payload":{}}`, want: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, setupTestHandlers(t, tt.source), http.MethodPost, "/api/reply", tt.body)
			assert.Equal(t, tt.want, rec.Code)

			var e errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

// TestWriteJSON_Error tests that the error body is valid JSON
func TestWriteJSON_Error(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusTeapot, errorResponse{Error: "x"})

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.JSONEq(t, `{"error":"x"}`, rec.Body.String())
}
