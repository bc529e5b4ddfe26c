package host

import (
	"context"
	"time"
)

// Item is the mail item the add-in is opened against
type Item interface {
	// ItemID returns the host identifier, empty for unsaved drafts.
	ItemID() string
	Subject() Field[string]
	// From returns the structured sender, or nil when the item has none (compose).
	From() *EmailAddress
	To() Field[[]EmailAddress]
	// Body fetches the item body in the requested representation.
	Body(ctx context.Context, coercion Coercion) (AsyncResult[string], error)
	// Created returns the item creation time, zero when unknown.
	Created() time.Time
}

// ReplyDisplayer is exposed by items on the read surface
type ReplyDisplayer interface {
	DisplayReplyForm(ctx context.Context, body string, coercion Coercion) error
}

// BodyWriter is exposed by items on the compose surface
type BodyWriter interface {
	SetBody(ctx context.Context, body string, coercion Coercion) error
}

// DraftSaver persists a compose item as a draft
type DraftSaver interface {
	SaveDraft(ctx context.Context) error
}

// NotificationKind selects the banner style
type NotificationKind int

const (
	InformationalMessage NotificationKind = iota
	ErrorMessage
)

// Notification is a banner posted on the item
type Notification struct {
	Kind    NotificationKind
	Message string
}

// Notifier posts banners on the item, replacing any banner with the same key
type Notifier interface {
	ReplaceNotification(ctx context.Context, key string, n Notification) error
}

// SurfaceOf probes the capabilities of item to find its presentation mode
func SurfaceOf(item Item) Surface {
	if _, ok := item.(ReplyDisplayer); ok {
		return ReadSurface
	}
	if _, ok := item.(BodyWriter); ok {
		return ComposeSurface
	}
	return UnknownSurface
}

// Mailbox is the ambient host context for one submission
type Mailbox struct {
	Item Item
	User UserProfile
	// Now supplies the fallback date; time.Now when nil.
	Now func() time.Time
}

func (m Mailbox) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}
