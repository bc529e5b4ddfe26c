package host

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubItem is a configurable Item for accessor tests
type stubItem struct {
	id      string
	subject Field[string]
	from    *EmailAddress
	to      Field[[]EmailAddress]
	body    func(ctx context.Context, c Coercion) (AsyncResult[string], error)
	created time.Time
}

func (s *stubItem) ItemID() string            { return s.id }
func (s *stubItem) Subject() Field[string]    { return s.subject }
func (s *stubItem) From() *EmailAddress       { return s.from }
func (s *stubItem) To() Field[[]EmailAddress] { return s.to }
func (s *stubItem) Created() time.Time        { return s.created }

func (s *stubItem) Body(ctx context.Context, c Coercion) (AsyncResult[string], error) {
	if s.body == nil {
		return Failed[string](nil), nil
	}
	return s.body(ctx, c)
}

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func testMailbox(item Item) Mailbox {
	return Mailbox{
		Item: item,
		User: UserProfile{DisplayName: "Me", EmailAddress: "me@example.com"},
		Now:  func() time.Time { return fixedNow },
	}
}

// TestReadContext_ReadSurfaceShape tests extraction from plain synchronous values
func TestReadContext_ReadSurfaceShape(t *testing.T) {
	created := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	var requested Coercion = -1
	item := &stubItem{
		id:      "AAMk1",
		subject: Resolved("Quarterly report"),
		from:    &EmailAddress{DisplayName: "Alice", EmailAddress: "alice@example.com"},
		to:      Resolved([]EmailAddress{{EmailAddress: "a@x.com"}, {EmailAddress: "b@x.com"}}),
		body: func(_ context.Context, c Coercion) (AsyncResult[string], error) {
			requested = c
			return Succeeded("Hello there"), nil
		},
		created: created,
	}

	msg, err := ReadContext(context.Background(), testMailbox(item), "please reply")
	require.NoError(t, err)

	assert.Equal(t, "AAMk1", msg.ItemID)
	assert.Equal(t, "Quarterly report", msg.Subject)
	assert.Equal(t, "alice@example.com", msg.From)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, msg.To)
	assert.Equal(t, created, msg.Date)
	assert.Equal(t, "Hello there", msg.BodyPlainText)
	assert.Equal(t, "please reply", msg.Input)
	assert.Equal(t, CoercionText, requested, "Body must be requested as plain text")
}

// TestReadContext_ComposeSurfaceShape tests extraction through asynchronous accessors
func TestReadContext_ComposeSurfaceShape(t *testing.T) {
	item := &stubItem{
		subject: Deferred(func(context.Context) (AsyncResult[string], error) {
			return Succeeded("Draft subject"), nil
		}),
		to: Deferred(func(context.Context) (AsyncResult[[]EmailAddress], error) {
			return Succeeded([]EmailAddress{{EmailAddress: "c@x.com"}}), nil
		}),
		body: func(context.Context, Coercion) (AsyncResult[string], error) {
			return Succeeded("draft body"), nil
		},
	}

	msg, err := ReadContext(context.Background(), testMailbox(item), "")
	require.NoError(t, err)

	assert.Equal(t, "", msg.ItemID)
	assert.Equal(t, "Draft subject", msg.Subject)
	assert.Equal(t, "me@example.com", msg.From, "Compose items fall back to the user profile")
	assert.Equal(t, []string{"c@x.com"}, msg.To)
	assert.Equal(t, fixedNow, msg.Date, "Missing creation time falls back to the clock")
	assert.Equal(t, "draft body", msg.BodyPlainText)
}

// TestReadContext_Defaults tests that failed host results resolve to defaults
func TestReadContext_Defaults(t *testing.T) {
	item := &stubItem{
		subject: Deferred(func(context.Context) (AsyncResult[string], error) {
			return Failed[string](errors.New("not ready")), nil
		}),
		to: Deferred(func(context.Context) (AsyncResult[[]EmailAddress], error) {
			return Failed[[]EmailAddress](nil), nil
		}),
	}

	msg, err := ReadContext(context.Background(), testMailbox(item), "")
	require.NoError(t, err)

	assert.Equal(t, "", msg.Subject)
	assert.NotNil(t, msg.To, "Recipients default to an empty slice")
	assert.Empty(t, msg.To)
	assert.Equal(t, "", msg.BodyPlainText)
}

// TestReadContext_TransportFailure tests that an accessor call failure is fatal
func TestReadContext_TransportFailure(t *testing.T) {
	boom := errors.New("host disconnected")
	item := &stubItem{
		subject: Resolved("ok"),
		to: Deferred(func(context.Context) (AsyncResult[[]EmailAddress], error) {
			return AsyncResult[[]EmailAddress]{}, boom
		}),
	}

	_, err := ReadContext(context.Background(), testMailbox(item), "")
	require.Error(t, err)
	assert.True(t, IsAccessorError(err))
	assert.ErrorIs(t, err, boom)

	var accErr *AccessorError
	require.ErrorAs(t, err, &accErr)
	assert.Equal(t, "to", accErr.Field)
}

// TestReadContext_NoItem tests the missing item case
func TestReadContext_NoItem(t *testing.T) {
	_, err := ReadContext(context.Background(), Mailbox{}, "")
	assert.True(t, IsAccessorError(err))
}

// TestSurfaceOf tests capability probing
func TestSurfaceOf(t *testing.T) {
	assert.Equal(t, UnknownSurface, SurfaceOf(&stubItem{}))
	assert.Equal(t, ReadSurface, SurfaceOf(&displayItem{}))
	assert.Equal(t, ComposeSurface, SurfaceOf(&composeItem{}))
}

type displayItem struct{ stubItem }

func (d *displayItem) DisplayReplyForm(context.Context, string, Coercion) error { return nil }

type composeItem struct{ stubItem }

func (c *composeItem) SetBody(context.Context, string, Coercion) error { return nil }
