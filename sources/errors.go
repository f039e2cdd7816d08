// Package sources fetches and parses the external inputs of a screening run:
// the manufacturer product list (scraped PDF or uploaded file) and the two
// regulatory reference sources.
package sources

import (
	"errors"
	"fmt"
)

// Kind classifies a source failure.
type Kind string

const (
	// NetworkFailure covers timeouts, DNS, TLS and non-2xx responses.
	NetworkFailure Kind = "network"
	// FormatFailure means the content is not the expected document type.
	FormatFailure Kind = "format"
	// ParseFailure means the document is valid but yields no usable table.
	ParseFailure Kind = "parse"
	// UserInputFailure means an uploaded file is unreadable or unusable.
	UserInputFailure Kind = "user_input"
)

// Error is a classified failure of one source operation.
type Error struct {
	Kind   Kind
	Source string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s failure: %v", e.Source, e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s failure", e.Source, e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, source, op string, err error) *Error {
	return &Error{Kind: kind, Source: source, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// HTTPStatusError reports a non-2xx response.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d from %s", e.StatusCode, e.URL)
}

// Result carries either a value or the error that replaced it.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps an error; Value is the zero value.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Failed reports whether the result carries an error.
func (r Result[T]) Failed() bool {
	return r.Err != nil
}
