// Package drafter runs one reply submission end to end: read the item, ask the
// automation endpoint for a reply, normalize it and put it into the item.
package drafter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felo/reply-drafter/internal/delivery"
	"github.com/felo/reply-drafter/internal/host"
	"github.com/felo/reply-drafter/internal/reply"
)

// Notification keys; a new banner replaces the previous one with the same key
const (
	StatusKey = "replyStatus"
	ErrorKey  = "replyError"
)

// ReplySource produces the raw reply for a message context
type ReplySource interface {
	Send(ctx context.Context, msg *host.MessageContext) (string, error)
}

// Controls is the task pane surface around a submission
type Controls interface {
	Input() string
	ClearInput()
	SetBusy(busy bool)
}

// ErrNoSource is returned by New when Config has no ReplySource
var ErrNoSource = errors.New("drafter: no reply source configured")

// Config wires a Drafter
type Config struct {
	Source     ReplySource
	Normalizer *reply.Normalizer
	Engine     *delivery.Engine
	Logger     *slog.Logger
}

// Drafter is the submission pipeline
type Drafter struct {
	source     ReplySource
	normalizer *reply.Normalizer
	engine     *delivery.Engine
	logger     *slog.Logger
}

// New creates a Drafter. Source is required; Normalizer and Engine default to
// their zero configs.
func New(cfg Config) (*Drafter, error) {
	if cfg.Source == nil {
		return nil, ErrNoSource
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Normalizer == nil {
		cfg.Normalizer = reply.NewNormalizer(reply.Options{Logger: logger})
	}
	if cfg.Engine == nil {
		cfg.Engine = delivery.NewEngine(delivery.Config{SettleDelay: delivery.DefaultSettleDelay, Logger: logger})
	}
	return &Drafter{
		source:     cfg.Source,
		normalizer: cfg.Normalizer,
		engine:     cfg.Engine,
		logger:     logger,
	}, nil
}

// Submit runs one submission against the mailbox item. Exactly one banner is
// posted, and controls are released on every path.
func (d *Drafter) Submit(ctx context.Context, mb host.Mailbox, controls Controls) (delivery.Outcome, error) {
	controls.SetBusy(true)
	defer controls.SetBusy(false)

	out, err := d.run(ctx, mb, controls.Input())
	if err != nil {
		d.logger.Error("reply submission failed", "err", err)
		d.notify(ctx, mb.Item, ErrorKey, host.Notification{
			Kind:    host.ErrorMessage,
			Message: fmt.Sprintf("Failed to create draft: %v", err),
		})
		return out, err
	}

	d.logger.Info("reply delivered", "mode", out.Mode, "content_type", out.ContentType)
	d.notify(ctx, mb.Item, StatusKey, host.Notification{
		Kind:    host.InformationalMessage,
		Message: out.Message(),
	})
	controls.ClearInput()
	return out, nil
}

func (d *Drafter) run(ctx context.Context, mb host.Mailbox, input string) (delivery.Outcome, error) {
	msg, err := host.ReadContext(ctx, mb, input)
	if err != nil {
		return delivery.Outcome{}, err
	}
	d.logger.Debug("message context read",
		"item_id", msg.ItemID, "recipients", len(msg.To), "body_chars", len(msg.BodyPlainText))

	raw, err := d.source.Send(ctx, msg)
	if err != nil {
		return delivery.Outcome{}, err
	}

	content, err := d.normalizer.Normalize(raw)
	if err != nil {
		return delivery.Outcome{}, err
	}

	return d.engine.Deliver(ctx, mb.Item, content)
}

// notify posts a banner on the item, or logs it when the item cannot show one
func (d *Drafter) notify(ctx context.Context, item host.Item, key string, n host.Notification) {
	notifier, ok := item.(host.Notifier)
	if !ok {
		d.logger.Info("notification", "key", key, "message", n.Message)
		return
	}
	if err := notifier.ReplaceNotification(ctx, key, n); err != nil {
		d.logger.Warn("failed to post notification", "key", key, "err", err)
	}
}
