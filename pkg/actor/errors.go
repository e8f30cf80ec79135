package actor

import (
	"errors"
	"fmt"
)

// Kind classifies a failed remote call so call sites can choose a policy
// without matching on message text.
type Kind int

// Error kinds.
const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindNotFound
	KindTransport
	KindValidation
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "notFound"
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// ParseKind maps a wire name back to a Kind. Unrecognized names yield KindUnknown.
func ParseKind(s string) Kind {
	switch s {
	case "unauthorized":
		return KindUnauthorized
	case "notFound":
		return KindNotFound
	case "transport":
		return KindTransport
	case "validation":
		return KindValidation
	default:
		return KindUnknown
	}
}

// Error is a classified remote failure.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindUnknown when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
