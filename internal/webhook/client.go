// Package webhook posts message context to the automation endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/felo/reply-drafter/internal/host"
)

// maxErrorBody bounds the response text quoted in a NetworkError
const maxErrorBody = 500

// NetworkError reports a transport failure or a non-2xx response.
// StatusCode is 0 when no response was received.
type NetworkError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("webhook request failed: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("webhook failed: %d %v", e.StatusCode, e.Err)
	}
	return strings.TrimSpace(fmt.Sprintf("webhook failed: %d %s", e.StatusCode, e.Body))
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err (or any error in its chain) is a NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// Payload is the canonical wire shape of a message context
type Payload struct {
	ItemID        string   `json:"itemId"`
	Subject       string   `json:"subject"`
	From          string   `json:"from"`
	To            []string `json:"to"`
	Date          string   `json:"date"`
	BodyPlainText string   `json:"bodyPlainText"`
	Input         string   `json:"input"`
}

// Request is the body posted to the endpoint
type Request struct {
	Payload Payload `json:"payload"`
}

// NewRequest builds the wire body for msg
func NewRequest(msg *host.MessageContext) Request {
	to := msg.To
	if to == nil {
		to = []string{}
	}
	return Request{Payload: Payload{
		ItemID:        msg.ItemID,
		Subject:       msg.Subject,
		From:          msg.From,
		To:            to,
		Date:          msg.Date.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		BodyPlainText: msg.BodyPlainText,
		Input:         msg.Input,
	}}
}

// MessageContext converts p back into a message context. An unparseable date
// is left zero.
func (p Payload) MessageContext() *host.MessageContext {
	date, _ := time.Parse(time.RFC3339, p.Date)
	to := p.To
	if to == nil {
		to = []string{}
	}
	return &host.MessageContext{
		ItemID:        p.ItemID,
		Subject:       p.Subject,
		From:          p.From,
		To:            to,
		Date:          date.UTC(),
		BodyPlainText: p.BodyPlainText,
		Input:         p.Input,
	}
}

// Config configures a Client
type Config struct {
	URL        string
	Timeout    time.Duration // 0 leaves the request unbounded
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client calls the automation endpoint
type Client struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

// New creates a webhook client
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{url: cfg.URL, http: hc, logger: logger}
}

// Send posts msg and returns the raw response body
func (c *Client) Send(ctx context.Context, msg *host.MessageContext) (string, error) {
	body, err := json.Marshal(NewRequest(msg))
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	c.logger.Debug("webhook responded",
		"status", resp.StatusCode, "bytes", len(raw), "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &NetworkError{StatusCode: resp.StatusCode, Body: truncate(string(raw), maxErrorBody)}
	}
	return string(raw), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
