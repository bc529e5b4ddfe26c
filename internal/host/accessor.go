package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// AccessorError reports that a host field could not be read at all
type AccessorError struct {
	Field string
	Err   error
}

func (e *AccessorError) Error() string {
	return fmt.Sprintf("reading item %s: %v", e.Field, e.Err)
}

func (e *AccessorError) Unwrap() error {
	return e.Err
}

// IsAccessorError reports whether err (or any error in its chain) is an AccessorError.
func IsAccessorError(err error) bool {
	var accErr *AccessorError
	return errors.As(err, &accErr)
}

// ReadContext extracts a MessageContext from the mailbox item. Missing fields
// fall back to defaults; the subject, recipient and body reads run concurrently.
func ReadContext(ctx context.Context, mb Mailbox, input string) (*MessageContext, error) {
	if mb.Item == nil {
		return nil, &AccessorError{Field: "item", Err: errors.New("no current item")}
	}
	item := mb.Item

	var (
		wg      sync.WaitGroup
		subject string
		to      []string
		body    string
		errs    [3]error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		s, err := item.Subject().Get(ctx)
		if err != nil {
			errs[0] = &AccessorError{Field: "subject", Err: err}
			return
		}
		subject = s
	}()
	go func() {
		defer wg.Done()
		recipients, err := item.To().Get(ctx)
		if err != nil {
			errs[1] = &AccessorError{Field: "to", Err: err}
			return
		}
		to = addresses(recipients)
	}()
	go func() {
		defer wg.Done()
		res, err := item.Body(ctx, CoercionText)
		if err != nil {
			errs[2] = &AccessorError{Field: "body", Err: err}
			return
		}
		if res.Status == StatusSucceeded {
			body = res.Value
		}
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	from := mb.User.EmailAddress
	if sender := item.From(); sender != nil && sender.EmailAddress != "" {
		from = sender.EmailAddress
	}

	date := item.Created()
	if date.IsZero() {
		date = mb.now()
	}

	return &MessageContext{
		ItemID:        item.ItemID(),
		Subject:       subject,
		From:          from,
		To:            to,
		Date:          date.UTC().Truncate(time.Millisecond),
		BodyPlainText: body,
		Input:         input,
	}, nil
}

// addresses maps recipients to their addresses, never returning nil
func addresses(recipients []EmailAddress) []string {
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		out = append(out, r.EmailAddress)
	}
	return out
}
