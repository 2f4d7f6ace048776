package service

import (
	"context"
	"errors"
	"fmt"

	"vozhatapp/internal/database"
	"vozhatapp/internal/dispatch"
	"vozhatapp/internal/repository"
	"vozhatapp/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidStatus      = errors.New("invalid event status")
	ErrTooManyAttempts    = errors.New("too many failed sign-in attempts")
)

// Kind groups failures by what the caller can do about them
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindConflict
	KindReference
	KindNotFound
	KindTimeout
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindReference:
		return "reference"
	case KindNotFound:
		return "not_found"
	case KindTimeout:
		return "timeout"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "unexpected"
}

// Error is returned by every service operation that failed.
// Message is safe to show to the user; Err keeps the cause.
type Error struct {
	Op      string
	Kind    Kind
	Message string
	Err     error
}

// Error reports the cause when there is one, otherwise the user message
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Message
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a service error, KindUnexpected otherwise
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnexpected
}

// MessageOf returns the user-facing text for err
func MessageOf(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if err == nil {
		return ""
	}
	return "Something went wrong. Please try again."
}

// classify maps err to a Kind and user message. An *Error passes through.
func classify(op string, err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}

	e := &Error{Op: op, Err: err}
	var verrs validation.Errors
	var verr validation.ValidationError
	switch {
	case errors.As(err, &verrs) && len(verrs) > 0:
		e.Kind, e.Message = KindValidation, verrs[0].Field+" "+verrs[0].Message
	case errors.As(err, &verr):
		e.Kind, e.Message = KindValidation, verr.Message
	case errors.Is(err, ErrInvalidCredentials):
		e.Kind, e.Message = KindUnauthorized, "Invalid email or password"
	case errors.Is(err, ErrTooManyAttempts):
		e.Kind, e.Message = KindUnauthorized, "Too many failed attempts. Try again later"
	case errors.Is(err, ErrEmailTaken):
		e.Kind, e.Message = KindConflict, "An account with this email already exists"
	case errors.Is(err, ErrInvalidStatus):
		e.Kind, e.Message = KindValidation, "Unknown event status"
	case errors.Is(err, database.ErrUniqueViolation):
		e.Kind, e.Message = KindConflict, "This record already exists"
	case errors.Is(err, database.ErrForeignKeyViolation):
		e.Kind, e.Message = KindReference, "The referenced record does not exist"
	case errors.Is(err, database.ErrCheckViolation), errors.Is(err, database.ErrNotNullViolation):
		e.Kind, e.Message = KindValidation, "Some fields have invalid values"
	case errors.Is(err, repository.ErrNotFound):
		e.Kind, e.Message = KindNotFound, "Record not found"
	case errors.Is(err, context.DeadlineExceeded):
		e.Kind, e.Message = KindTimeout, "The operation took too long"
	case errors.Is(err, context.Canceled), errors.Is(err, dispatch.ErrPoolClosed):
		e.Kind, e.Message = KindUnexpected, "The operation was cancelled"
	default:
		e.Kind, e.Message = KindUnexpected, "Something went wrong. Please try again."
	}
	return e
}
