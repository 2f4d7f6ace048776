package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"vozhatapp/internal/database"
	"vozhatapp/internal/dispatch"
	"vozhatapp/internal/repository"
	"vozhatapp/internal/validation"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation list", validation.Errors{{Field: "Name", Message: "is required"}}, KindValidation},
		{"single validation", validation.ValidationError{Field: "email", Message: "invalid email format"}, KindValidation},
		{"credentials", ErrInvalidCredentials, KindUnauthorized},
		{"email taken", ErrEmailTaken, KindConflict},
		{"locked out", ErrTooManyAttempts, KindUnauthorized},
		{"bad status", ErrInvalidStatus, KindValidation},
		{"unique", &database.ConstraintError{Kind: database.ConstraintUnique, Err: errors.New("dup")}, KindConflict},
		{"foreign key", fmt.Errorf("wrapped: %w", &database.ConstraintError{Kind: database.ConstraintForeignKey, Err: errors.New("fk")}), KindReference},
		{"check", &database.ConstraintError{Kind: database.ConstraintCheck, Err: errors.New("check")}, KindValidation},
		{"not found", fmt.Errorf("failed to update: %w", repository.ErrNotFound), KindNotFound},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"pool closed", dispatch.ErrPoolClosed, KindUnexpected},
		{"other", errors.New("disk on fire"), KindUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := classify("op", tt.err)
			if e.Kind != tt.want {
				t.Errorf("kind = %s, want %s", e.Kind, tt.want)
			}
			if e.Message == "" {
				t.Error("empty message")
			}
			if e.Unwrap() == nil {
				t.Error("cause is not preserved")
			}
		})
	}
}

func TestClassifyKeepsServiceErrors(t *testing.T) {
	inner := &Error{Op: "inner", Kind: KindConflict, Message: "taken"}
	if got := classify("outer", fmt.Errorf("again: %w", inner)); got != inner {
		t.Errorf("classify rewrapped a service error: %+v", got)
	}
}

func TestKindAndMessageOf(t *testing.T) {
	if KindOf(errors.New("plain")) != KindUnexpected {
		t.Error("plain errors should be unexpected")
	}
	if MessageOf(nil) != "" {
		t.Error("MessageOf(nil) should be empty")
	}
	err := classify("register", ErrEmailTaken)
	if MessageOf(err) != "An account with this email already exists" {
		t.Errorf("MessageOf = %q", MessageOf(err))
	}
}
