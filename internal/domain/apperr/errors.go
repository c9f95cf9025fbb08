// Package apperr holds the error taxonomy shared by the services and the
// HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the transport layer can pick a status code.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindAnalysis    Kind = "analysis"
	KindPersistence Kind = "persistence"
	KindNotFound    Kind = "not_found"
)

// Error is a classified failure with a human readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func Analysis(msg string) *Error { return &Error{Kind: KindAnalysis, Message: msg} }

func Persistence(msg string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: msg, Err: err}
}

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, k Kind) bool {
	return KindOf(err) == k
}
