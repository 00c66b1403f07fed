// Package apierr defines the error kinds shared by the storefront client core.
//
// Every failure that crosses a component boundary is an *Error whose Kind is one
// of the sentinels below, so callers branch with errors.Is:
//
//	if errors.Is(err, apierr.ErrOutOfStock) { ... }
package apierr

import (
	"errors"
	"fmt"
)

// Error kinds
var (
	ErrValidation   = errors.New("validation error")
	ErrAuth         = errors.New("authentication error")
	ErrNotFound     = errors.New("not found")
	ErrOutOfStock   = errors.New("out of stock")
	ErrNetwork      = errors.New("network error")
	ErrCorruptState = errors.New("corrupt state")
)

// Backend error codes carried in the "code" field of an error body.
const (
	CodeInvalidCode  = "invalid_code"
	CodeCodeExpired  = "code_expired"
	CodeRateLimited  = "rate_limited"
	CodeInvalidPhone = "invalid_phone"
	CodeOutOfStock   = "out_of_stock"
	CodeUnauthorized = "unauthorized"
)

// Error is a typed failure with a human readable message.
type Error struct {
	Kind    error             // One of the Err* kind sentinels
	Message string            // Backend "detail" when supplied, else a fallback
	Status  int               // HTTP status, 0 when the request never completed
	Code    string            // Backend error code, e.g. "invalid_code"
	Fields  map[string]string // Per-field validation messages
	Err     error             // Underlying cause
}

// New returns an error of the given kind.
func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf returns an error of the given kind with a formatted message.
func Newf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error of the given kind caused by err.
func Wrap(kind error, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the kind sentinel of err, or nil when err carries none.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrAuth, ErrNotFound, ErrOutOfStock, ErrNetwork, ErrCorruptState} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Message returns the human readable message of err, or fallback when err does
// not carry one.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
