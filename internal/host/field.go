package host

import (
	"context"
	"errors"
)

// AsyncStatus is the completion status the host reports for an asynchronous call
type AsyncStatus int

const (
	StatusSucceeded AsyncStatus = iota
	StatusFailed
)

// AsyncResult is what an asynchronous host accessor hands back once it completes.
// A failed result is a host-level answer, not a transport failure.
type AsyncResult[T any] struct {
	Status AsyncStatus
	Value  T
	Err    error
}

// Succeeded wraps a value in a successful result
func Succeeded[T any](v T) AsyncResult[T] {
	return AsyncResult[T]{Status: StatusSucceeded, Value: v}
}

// Failed builds a failed result carrying the host's error
func Failed[T any](err error) AsyncResult[T] {
	if err == nil {
		err = errors.New("host reported failure")
	}
	return AsyncResult[T]{Status: StatusFailed, Err: err}
}

// Accessor fetches a field value asynchronously. A non-nil error means the call
// itself could not be made.
type Accessor[T any] func(ctx context.Context) (AsyncResult[T], error)

// Field is a logical item field that the host exposes either as a plain value
// (read surface) or behind an asynchronous accessor (compose surface).
// The zero Field resolves to T's zero value.
type Field[T any] struct {
	value T
	fetch Accessor[T]
}

// Resolved returns a field whose value is already known
func Resolved[T any](v T) Field[T] {
	return Field[T]{value: v}
}

// Deferred returns a field that must be fetched through fn
func Deferred[T any](fn Accessor[T]) Field[T] {
	return Field[T]{fetch: fn}
}

// IsDeferred reports whether the field is backed by an asynchronous accessor
func (f Field[T]) IsDeferred() bool {
	return f.fetch != nil
}

// Get returns the field value. A failed host result yields T's zero value;
// only a transport failure of the accessor is returned as an error.
func (f Field[T]) Get(ctx context.Context) (T, error) {
	if f.fetch == nil {
		return f.value, nil
	}
	res, err := f.fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if res.Status != StatusSucceeded {
		var zero T
		return zero, nil
	}
	return res.Value, nil
}
