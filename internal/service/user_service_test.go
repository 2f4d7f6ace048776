package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"vozhatapp/internal/models"
	"vozhatapp/internal/security"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	user, err := s.users.Register(ctx, "Olga", "Olga@Camp.ru", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected user ID to be set")
	}
	if user.PasswordHash == "password123" {
		t.Fatal("password stored in plain text")
	}

	got, err := s.users.Authenticate(ctx, "olga@camp.ru", "password123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("authenticated user %d, want %d", got.ID, user.ID)
	}
	if got.LastLoginAt == nil {
		t.Error("expected last login to be recorded")
	}

	stored, err := s.users.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.LastLoginAt == nil {
		t.Error("last login not persisted")
	}
}

func TestAuthenticateFailures(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	if _, err := s.users.Register(ctx, "Olga", "olga@camp.ru", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "olga@camp.ru", "password124"},
		{"unknown email", "nobody@camp.ru", "password123"},
		{"empty password", "olga@camp.ru", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.users.Authenticate(ctx, tt.email, tt.password)
			expectKind(t, err, KindUnauthorized)
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	if _, err := s.users.Register(ctx, "Olga", "olga@camp.ru", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name     string
		uname    string
		email    string
		password string
		want     Kind
	}{
		{"short name", "O", "a@camp.ru", "password123", KindValidation},
		{"bad email", "Anna", "not-an-email", "password123", KindValidation},
		{"short password", "Anna", "anna@camp.ru", "short", KindValidation},
		{"duplicate email", "Olga Two", "OLGA@camp.ru", "password123", KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.users.Register(ctx, tt.uname, tt.email, tt.password)
			expectKind(t, err, tt.want)
		})
	}
}

func TestChangePassword(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	user, err := s.users.Register(ctx, "Olga", "olga@camp.ru", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	expectKind(t, s.users.ChangePassword(ctx, user.ID, "wrong-password", "newpassword1"), KindUnauthorized)
	if err := s.users.ChangePassword(ctx, user.ID, "password123", "newpassword1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := s.users.Authenticate(ctx, "olga@camp.ru", "newpassword1"); err != nil {
		t.Errorf("Authenticate with new password: %v", err)
	}
	expectKind(t, s.users.ChangePassword(ctx, user.ID+100, "password123", "newpassword1"), KindNotFound)
}

func TestUpdatePreferences(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	user, err := s.users.Register(ctx, "Olga", "olga@camp.ru", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := s.users.UpdatePreferences(ctx, user.ID, models.ThemeDark, false); err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	got, _ := s.users.Get(ctx, user.ID)
	if got.Theme != models.ThemeDark || got.NotificationsEnabled {
		t.Errorf("preferences = %v/%v, want dark/off", got.Theme, got.NotificationsEnabled)
	}
	expectKind(t, s.users.UpdatePreferences(ctx, user.ID, models.Theme(7), true), KindValidation)
}

func TestAuthenticateAttemptLimit(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	if _, err := s.users.Register(ctx, "Olga", "olga@camp.ru", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	s.users.LimitAttempts(security.NewAttemptLimiter(2, time.Hour))

	for i := 0; i < 2; i++ {
		_, err := s.users.Authenticate(ctx, "olga@camp.ru", "nope-nope")
		expectKind(t, err, KindUnauthorized)
	}
	_, err := s.users.Authenticate(ctx, "olga@camp.ru", "password123")
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}
