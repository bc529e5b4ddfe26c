// Package delivery commits a normalized reply into the host item.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felo/reply-drafter/internal/host"
	"github.com/felo/reply-drafter/internal/reply"
)

// DefaultSettleDelay is the wait before touching a freshly opened compose editor
const DefaultSettleDelay = 300 * time.Millisecond

// Mode is how the reply ended up in front of the user
type Mode int

const (
	Displayed Mode = iota
	Saved
)

func (m Mode) String() string {
	if m == Saved {
		return "Saved"
	}
	return "Displayed"
}

// Outcome describes a completed delivery
type Outcome struct {
	Succeeded   bool
	ContentType host.Coercion
	Mode        Mode
}

// Message is the user-facing banner text for the outcome
func (o Outcome) Message() string {
	kind := "HTML"
	if o.ContentType == host.CoercionText {
		kind = "plain text"
	}
	if o.Mode == Saved {
		return fmt.Sprintf("Draft saved (%s)", kind)
	}
	return fmt.Sprintf("Reply opened (%s)", kind)
}

// DeliveryError reports that every strategy for a surface failed
type DeliveryError struct {
	Surface host.Surface
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed on %s surface: %v", e.Surface, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// IsDeliveryError reports whether err (or any error in its chain) is a DeliveryError.
func IsDeliveryError(err error) bool {
	var delErr *DeliveryError
	return errors.As(err, &delErr)
}

// Config configures an Engine
type Config struct {
	SettleDelay time.Duration
	Logger      *slog.Logger
}

// Engine picks a delivery strategy from the item's surface and falls back from
// HTML to plain text when the host rejects HTML.
type Engine struct {
	settleDelay time.Duration
	logger      *slog.Logger
	wait        func(ctx context.Context, d time.Duration) error
}

// NewEngine creates a delivery engine
func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		settleDelay: cfg.SettleDelay,
		logger:      logger,
		wait:        sleep,
	}
}

// Deliver commits content into item
func (e *Engine) Deliver(ctx context.Context, item host.Item, content string) (Outcome, error) {
	switch surface := host.SurfaceOf(item); surface {
	case host.ReadSurface:
		return e.display(ctx, item.(host.ReplyDisplayer), content)
	case host.ComposeSurface:
		return e.compose(ctx, item, content)
	default:
		return Outcome{}, &DeliveryError{
			Surface: surface,
			Err:     errors.New("item exposes neither reply form nor compose body"),
		}
	}
}

func (e *Engine) display(ctx context.Context, d host.ReplyDisplayer, content string) (Outcome, error) {
	htmlErr := d.DisplayReplyForm(ctx, content, host.CoercionHTML)
	if htmlErr == nil {
		return Outcome{Succeeded: true, ContentType: host.CoercionHTML, Mode: Displayed}, nil
	}
	e.logger.Warn("html reply form rejected, retrying as plain text", "err", htmlErr)

	textErr := d.DisplayReplyForm(ctx, reply.PlainText(content), host.CoercionText)
	if textErr != nil {
		return Outcome{}, &DeliveryError{Surface: host.ReadSurface, Err: errors.Join(htmlErr, textErr)}
	}
	return Outcome{Succeeded: true, ContentType: host.CoercionText, Mode: Displayed}, nil
}

func (e *Engine) compose(ctx context.Context, item host.Item, content string) (Outcome, error) {
	w := item.(host.BodyWriter)

	if err := e.wait(ctx, e.settleDelay); err != nil {
		return Outcome{}, &DeliveryError{Surface: host.ComposeSurface, Err: err}
	}

	contentType := host.CoercionHTML
	if htmlErr := w.SetBody(ctx, content, host.CoercionHTML); htmlErr != nil {
		e.logger.Warn("html body rejected, retrying as plain text", "err", htmlErr)

		contentType = host.CoercionText
		if textErr := w.SetBody(ctx, reply.PlainText(content), host.CoercionText); textErr != nil {
			return Outcome{}, &DeliveryError{Surface: host.ComposeSurface, Err: errors.Join(htmlErr, textErr)}
		}
	}

	if saver, ok := item.(host.DraftSaver); ok {
		if err := saver.SaveDraft(ctx); err != nil {
			return Outcome{}, &DeliveryError{Surface: host.ComposeSurface, Err: fmt.Errorf("saving draft: %w", err)}
		}
	}

	return Outcome{Succeeded: true, ContentType: contentType, Mode: Saved}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
