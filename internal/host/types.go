// Package host models the mail client item the add-in runs against: its fields,
// the capabilities it may expose, and the ambient mailbox context.
package host

import "time"

// Coercion is the representation requested from, or handed to, a host capability
type Coercion int

const (
	CoercionHTML Coercion = iota
	CoercionText
)

func (c Coercion) String() string {
	if c == CoercionText {
		return "Text"
	}
	return "Html"
}

// Surface is the presentation mode of the current item
type Surface int

const (
	UnknownSurface Surface = iota
	ReadSurface
	ComposeSurface
)

func (s Surface) String() string {
	switch s {
	case ReadSurface:
		return "read"
	case ComposeSurface:
		return "compose"
	default:
		return "unknown"
	}
}

// EmailAddress is a structured address descriptor as the host reports it
type EmailAddress struct {
	DisplayName  string
	EmailAddress string
}

// UserProfile describes the authenticated mailbox owner
type UserProfile struct {
	DisplayName  string
	EmailAddress string
}

// MessageContext is the snapshot of an item sent to the automation endpoint.
// It is built once per submission and never modified afterwards.
type MessageContext struct {
	ItemID        string
	Subject       string
	From          string
	To            []string
	Date          time.Time
	BodyPlainText string
	Input         string
}
