package emlhost

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/felo/reply-drafter/internal/host"
	"github.com/felo/reply-drafter/internal/reply"
)

// ErrNoBody is returned by SaveDraft before any body was set
var ErrNoBody = errors.New("draft has no body")

// Options configures the items opened from .eml files
type Options struct {
	// OutputDir receives the written reply and draft files.
	OutputDir string
	// User is the signed-in mailbox owner, used as the sender of written messages.
	User host.UserProfile
	// TextOnly makes compose items reject HTML bodies.
	TextOnly bool
	Logger   *slog.Logger
	Now      func() time.Time
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Banners records the notifications posted on an item and logs them
type Banners struct {
	mu     sync.Mutex
	logger *slog.Logger
	posted map[string]host.Notification
}

func (b *Banners) ReplaceNotification(_ context.Context, key string, n host.Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.posted == nil {
		b.posted = map[string]host.Notification{}
	}
	b.posted[key] = n

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	if n.Kind == host.ErrorMessage {
		logger.Error(n.Message, "key", key)
	} else {
		logger.Info(n.Message, "key", key)
	}
	return nil
}

// Notification returns the banner currently posted under key
func (b *Banners) Notification(key string) (host.Notification, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.posted[key]
	return n, ok
}

// ReadItem is a received message opened on the read surface. Displaying a
// reply form writes the reply as a new .eml file.
type ReadItem struct {
	Banners

	msg  *Message
	opts Options

	mu      sync.Mutex
	written string
}

// OpenRead opens path as a read item
func OpenRead(path string, opts Options) (*ReadItem, error) {
	msg, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return NewReadItem(msg, opts), nil
}

// NewReadItem wraps a parsed message as a read item
func NewReadItem(msg *Message, opts Options) *ReadItem {
	return &ReadItem{Banners: Banners{logger: opts.logger()}, msg: msg, opts: opts}
}

func (r *ReadItem) ItemID() string                      { return r.msg.MessageID }
func (r *ReadItem) Subject() host.Field[string]         { return host.Resolved(r.msg.Subject) }
func (r *ReadItem) From() *host.EmailAddress            { return r.msg.Sender }
func (r *ReadItem) To() host.Field[[]host.EmailAddress] { return host.Resolved(r.msg.Recipients) }
func (r *ReadItem) Created() time.Time                  { return r.msg.Date }

func (r *ReadItem) Body(_ context.Context, c host.Coercion) (host.AsyncResult[string], error) {
	return host.Succeeded(bodyAs(r.msg, c)), nil
}

// DisplayReplyForm writes a reply to the sender of the message
func (r *ReadItem) DisplayReplyForm(_ context.Context, body string, c host.Coercion) error {
	if r.msg.Sender == nil || r.msg.Sender.EmailAddress == "" {
		return errors.New("message has no sender to reply to")
	}

	var refs []string
	refs = append(refs, r.msg.References...)
	if r.msg.MessageID != "" {
		refs = append(refs, r.msg.MessageID)
	}

	path, err := writeMessage(r.opts.OutputDir, "reply", outgoing{
		From:       userAddress(r.opts.User),
		To:         []host.EmailAddress{*r.msg.Sender},
		Subject:    replySubject(r.msg.Subject),
		InReplyTo:  r.msg.MessageID,
		References: refs,
		Date:       r.opts.now(),
		Body:       body,
		Coercion:   c,
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.written = path
	r.mu.Unlock()
	r.opts.logger().Debug("reply form written", "path", path, "coercion", c)
	return nil
}

// Written returns the path of the last reply written, empty if none
func (r *ReadItem) Written() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// ComposeItem is a draft being composed from an .eml file. Subject and
// recipients are only available through deferred accessors.
type ComposeItem struct {
	Banners

	msg  *Message
	opts Options

	mu       sync.Mutex
	body     string
	coercion host.Coercion
	hasBody  bool
	saved    string
}

// OpenCompose opens path as a compose item
func OpenCompose(path string, opts Options) (*ComposeItem, error) {
	msg, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return NewComposeItem(msg, opts), nil
}

// NewComposeItem wraps a parsed message as a compose item
func NewComposeItem(msg *Message, opts Options) *ComposeItem {
	return &ComposeItem{Banners: Banners{logger: opts.logger()}, msg: msg, opts: opts}
}

// ItemID is empty until the draft is saved
func (c *ComposeItem) ItemID() string           { return "" }
func (c *ComposeItem) From() *host.EmailAddress { return nil }
func (c *ComposeItem) Created() time.Time       { return time.Time{} }

func (c *ComposeItem) Subject() host.Field[string] {
	return host.Deferred(func(context.Context) (host.AsyncResult[string], error) {
		return host.Succeeded(c.msg.Subject), nil
	})
}

func (c *ComposeItem) To() host.Field[[]host.EmailAddress] {
	return host.Deferred(func(context.Context) (host.AsyncResult[[]host.EmailAddress], error) {
		return host.Succeeded(c.msg.Recipients), nil
	})
}

func (c *ComposeItem) Body(_ context.Context, coercion host.Coercion) (host.AsyncResult[string], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasBody {
		return host.Succeeded(bodyAs(c.msg, coercion)), nil
	}
	return host.Succeeded(convert(c.body, c.coercion, coercion)), nil
}

func (c *ComposeItem) SetBody(_ context.Context, body string, coercion host.Coercion) error {
	if coercion == host.CoercionHTML && c.opts.TextOnly {
		return fmt.Errorf("item does not accept %s bodies", coercion)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.body = body
	c.coercion = coercion
	c.hasBody = true
	return nil
}

// SaveDraft writes the current body as a draft .eml file
func (c *ComposeItem) SaveDraft(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasBody {
		return ErrNoBody
	}

	path, err := writeMessage(c.opts.OutputDir, "draft", outgoing{
		From:     userAddress(c.opts.User),
		To:       c.msg.Recipients,
		Subject:  c.msg.Subject,
		Date:     c.opts.now(),
		Body:     c.body,
		Coercion: c.coercion,
	})
	if err != nil {
		return err
	}
	c.saved = path
	c.opts.logger().Debug("draft saved", "path", path, "coercion", c.coercion)
	return nil
}

// Saved returns the path of the last saved draft, empty if none
func (c *ComposeItem) Saved() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saved
}

// bodyAs returns the message body in the requested representation
func bodyAs(msg *Message, c host.Coercion) string {
	if c == host.CoercionText {
		if msg.BodyText != "" || msg.BodyHTML == "" {
			return msg.BodyText
		}
		return reply.PlainText(msg.BodyHTML)
	}
	if msg.BodyHTML != "" || msg.BodyText == "" {
		return msg.BodyHTML
	}
	return "<pre>" + html.EscapeString(msg.BodyText) + "</pre>"
}

func convert(body string, from, to host.Coercion) string {
	if from == to {
		return body
	}
	if to == host.CoercionText {
		return reply.PlainText(body)
	}
	return "<pre>" + html.EscapeString(body) + "</pre>"
}

func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(subject)), "re:") {
		return subject
	}
	return "Re: " + subject
}

func userAddress(u host.UserProfile) *host.EmailAddress {
	if u.EmailAddress == "" {
		return nil
	}
	return &host.EmailAddress{DisplayName: u.DisplayName, EmailAddress: u.EmailAddress}
}
