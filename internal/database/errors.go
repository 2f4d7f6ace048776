package database

import (
	"errors"
	"fmt"
)

// ConstraintKind classifies integrity violations reported by the engine
type ConstraintKind int

const (
	ConstraintOther ConstraintKind = iota
	ConstraintUnique
	ConstraintForeignKey
	ConstraintCheck
	ConstraintNotNull
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintUnique:
		return "unique"
	case ConstraintForeignKey:
		return "foreign key"
	case ConstraintCheck:
		return "check"
	case ConstraintNotNull:
		return "not null"
	}
	return "constraint"
}

var (
	ErrConstraint          = errors.New("constraint violation")
	ErrUniqueViolation     = errors.New("unique constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key constraint violation")
	ErrCheckViolation      = errors.New("check constraint violation")
	ErrNotNullViolation    = errors.New("not null constraint violation")
)

// ConstraintError is a driver error recognised as a constraint violation.
// errors.Is matches it against the sentinel of its kind and ErrConstraint.
type ConstraintError struct {
	Kind ConstraintKind
	Err  error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s violation: %v", e.Kind, e.Err)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// Is matches ErrConstraint and the sentinel of the violated kind
func (e *ConstraintError) Is(target error) bool {
	switch target {
	case ErrConstraint:
		return true
	case ErrUniqueViolation:
		return e.Kind == ConstraintUnique
	case ErrForeignKeyViolation:
		return e.Kind == ConstraintForeignKey
	case ErrCheckViolation:
		return e.Kind == ConstraintCheck
	case ErrNotNullViolation:
		return e.Kind == ConstraintNotNull
	}
	return false
}

// Classify wraps err in a *ConstraintError when the dialect recognises it.
// Other errors, and nil, are returned unchanged.
func Classify(d Dialect, err error) error {
	if err == nil {
		return nil
	}
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return err
	}
	if kind, ok := d.Constraint(err); ok {
		return &ConstraintError{Kind: kind, Err: err}
	}
	return err
}
