// Package apperror defines the error taxonomy shared by services and HTTP handlers.
// Services return *Error values; handlers translate them into a status code and a
// short, user-safe message.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	// Internal is an unexpected failure. Its message is always generic.
	Internal Kind = iota
	// Validation is malformed, missing or conflicting input.
	Validation
	// BadRequest is a request that is well formed but cannot be honoured.
	BadRequest
	// Unauthorized is a missing or invalid credential or token.
	Unauthorized
	// Forbidden is an authenticated caller acting on a resource it does not own.
	Forbidden
	// NotFound is a referenced entity that does not exist.
	NotFound
	// Conflict is a duplicate registration.
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case BadRequest:
		return "bad_request"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// FieldError is a validation failure on a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the application error type.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode maps the kind onto an HTTP status. Conflicts surface as 400 because
// duplicate registration is reported to clients as a validation failure.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case Validation, BadRequest, Conflict:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Response is the JSON body written for an error.
type Response struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// ToResponse returns the client-facing body. Internal causes are never included.
func (e *Error) ToResponse() Response {
	return Response{Message: e.Message, Errors: e.Fields}
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NewValidation(message string, fields ...FieldError) *Error {
	return &Error{Kind: Validation, Message: message, Fields: fields}
}

func NewBadRequest(message string, err error) *Error {
	return New(BadRequest, message, err)
}

func NewUnauthorized(message string, err error) *Error {
	return New(Unauthorized, message, err)
}

func NewForbidden(message string) *Error {
	return New(Forbidden, message, nil)
}

func NewNotFound(message string) *Error {
	return New(NotFound, message, nil)
}

func NewConflict(message string, err error) *Error {
	return New(Conflict, message, err)
}

// NewInternal wraps an unexpected failure behind a generic message.
func NewInternal(err error) *Error {
	return New(Internal, "An unexpected error occurred. Try again later.", err)
}

// From returns err as an *Error, wrapping anything else as Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return NewInternal(err)
}

// KindOf reports the kind of err, or Internal for foreign errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

func IsNotFound(err error) bool     { return err != nil && KindOf(err) == NotFound }
func IsValidation(err error) bool   { return err != nil && KindOf(err) == Validation }
func IsUnauthorized(err error) bool { return err != nil && KindOf(err) == Unauthorized }
func IsForbidden(err error) bool    { return err != nil && KindOf(err) == Forbidden }
func IsConflict(err error) bool     { return err != nil && KindOf(err) == Conflict }
