package apperr

import (
	"errors"
	"fmt"
)

// Kind tags an error with its place in the service taxonomy. The HTTP
// layer maps kinds to response shapes in a single dispatch table.
type Kind uint8

const (
	Internal Kind = iota
	Validation
	Conflict
	Unauthorized
	TokenExpired
	Forbidden
	NotFound
	InvalidCredential
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation failed"
	case Conflict:
		return "conflict"
	case Unauthorized:
		return "unauthorized"
	case TokenExpired:
		return "token expired"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not found"
	case InvalidCredential:
		return "invalid credential"
	default:
		return "internal error"
	}
}

type Error struct {
	Kind    Kind
	Message string
	// Fields groups validation messages by field name. Nil for every
	// kind except Validation.
	Fields map[string][]string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func New(k Kind, msg string) *Error {
	return &Error{Kind: k, Message: msg}
}

func Newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

func Wrap(k Kind, msg string, cause error) *Error {
	return &Error{Kind: k, Message: msg, cause: cause}
}

// NewValidation builds a Validation error from field-grouped messages.
func NewValidation(fields map[string][]string) *Error {
	return &Error{
		Kind:    Validation,
		Message: "validation failed",
		Fields:  fields,
	}
}

// From extracts the *Error from err, or wraps err as Internal so the
// transport layer always has a kind to dispatch on.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(Internal, "unexpected error", err)
}

func KindOf(err error) Kind { return From(err).Kind }

func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func IsNotFound(err error) bool      { return IsKind(err, NotFound) }
func IsConflict(err error) bool      { return IsKind(err, Conflict) }
func IsUnauthorized(err error) bool  { return IsKind(err, Unauthorized) }
func IsTokenExpired(err error) bool  { return IsKind(err, TokenExpired) }
func IsValidation(err error) bool    { return IsKind(err, Validation) }
func IsInternal(err error) bool      { return IsKind(err, Internal) }
