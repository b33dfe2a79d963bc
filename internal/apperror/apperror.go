// Package apperror defines the error variant consumed by the HTTP error
// responder. An Error is classified once, when it is constructed, as either an
// authorization failure (carrying a stable code and a message) or an
// unclassified failure (carrying a message and the stack trace captured at the
// point of failure).
package apperror

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies an Error.
type Kind int

const (
	// KindUnclassified is any failure without a more specific classification.
	KindUnclassified Kind = iota
	// KindAuthorization is a failed authentication or authorization check.
	KindAuthorization
)

// String returns a short lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	default:
		return "unclassified"
	}
}

// Error is the error object handed to the error responder.
//
// Code is only meaningful for KindAuthorization; Stack is only populated for
// KindUnclassified.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Stack   string

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind == KindAuthorization && e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// IsAuthorization reports whether e is an authorization failure.
func (e *Error) IsAuthorization() bool { return e != nil && e.Kind == KindAuthorization }

// Unauthorized builds an authorization failure.
func Unauthorized(code, message string) *Error {
	return &Error{Kind: KindAuthorization, Code: code, Message: message}
}

// Internal wraps err as an unclassified failure and records a stack trace.
// If err already carries a stack (from github.com/pkg/errors), that trace is
// kept instead of capturing a new one.
func Internal(err error) *Error {
	if err == nil {
		err = errors.New("unknown error")
	}
	traced := err
	if !hasStack(err) {
		traced = pkgerrors.WithStack(err)
	}
	return &Error{
		Kind:    KindUnclassified,
		Message: err.Error(),
		Stack:   fmt.Sprintf("%+v", traced),
		cause:   err,
	}
}

// Internalf formats a message and returns it as an unclassified failure.
func Internalf(format string, args ...any) *Error {
	return Internal(pkgerrors.Errorf(format, args...))
}

// From returns err as an *Error. An *Error anywhere in the chain is returned
// as-is; anything else becomes an unclassified failure.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

func hasStack(err error) bool {
	var st stackTracer
	return errors.As(err, &st)
}
