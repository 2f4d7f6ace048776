package service

import (
	"context"
	"strings"
	"time"

	"vozhatapp/internal/models"
	"vozhatapp/internal/repository"
	"vozhatapp/internal/security"
	"vozhatapp/internal/validation"
)

// UserService handles counselor accounts and authentication
type UserService struct {
	users   *repository.UserRepository
	hasher  *security.Hasher
	limiter *security.AttemptLimiter
	run     *Runner
	now     func() time.Time
}

// NewUserService creates a new user service
func NewUserService(users *repository.UserRepository, hasher *security.Hasher, run *Runner) *UserService {
	return &UserService{users: users, hasher: hasher, run: run, now: time.Now}
}

// LimitAttempts enables the failed sign-in limit. Without it attempts are
// unlimited.
func (s *UserService) LimitAttempts(l *security.AttemptLimiter) {
	s.limiter = l
}

// Register creates a new account with a hashed password
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	const op = "register"
	if err := validation.ValidateName(name); err != nil {
		return nil, s.run.fail(op, err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, s.run.fail(op, err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, s.run.fail(op, err)
	}

	existing, err := read(ctx, s.run, op, func(ctx context.Context) (*models.User, error) {
		return s.users.ByEmail(ctx, email)
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, s.run.fail(op, ErrEmailTaken)
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, s.run.fail(op, err)
	}

	user := &models.User{
		Name:                 strings.TrimSpace(name),
		Email:                email,
		PasswordHash:         hash,
		Theme:                models.ThemeLight,
		NotificationsEnabled: true,
		CreatedAt:            s.now(),
	}
	// A concurrent registration can still win the race; the unique index
	// turns that into a conflict as well.
	if _, err := s.run.Insert(ctx, op, func(ctx context.Context) (int64, error) {
		return s.users.Insert(ctx, user)
	}); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks the credentials and records the login.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	const op = "authenticate"
	if !s.limiter.Allow(email) {
		return nil, s.run.fail(op, ErrTooManyAttempts)
	}
	user, err := read(ctx, s.run, op, func(ctx context.Context) (*models.User, error) {
		return s.users.ByEmail(ctx, email)
	})
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.CheckPassword(password, user.PasswordHash) {
		s.limiter.Fail(email)
		return nil, s.run.fail(op, ErrInvalidCredentials)
	}
	s.limiter.Reset(email)

	at := s.now()
	if err := s.run.Write(ctx, "record login", func(ctx context.Context) error {
		return s.users.UpdateLastLogin(ctx, user.ID, at)
	}); err != nil {
		return nil, err
	}
	user.LastLoginAt = &at
	return user, nil
}

// ChangePassword replaces the password after verifying the current one
func (s *UserService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	const op = "change password"
	if err := validation.ValidatePassword(next); err != nil {
		return s.run.fail(op, err)
	}
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return s.run.fail(op, repository.ErrNotFound)
	}
	if !s.hasher.CheckPassword(current, user.PasswordHash) {
		return s.run.fail(op, ErrInvalidCredentials)
	}
	hash, err := s.hasher.HashPassword(next)
	if err != nil {
		return s.run.fail(op, err)
	}
	return s.run.Write(ctx, op, func(ctx context.Context) error {
		return s.users.UpdatePassword(ctx, userID, hash)
	})
}

// UpdatePreferences stores theme and notification settings
func (s *UserService) UpdatePreferences(ctx context.Context, userID int64, theme models.Theme, notifications bool) error {
	const op = "update preferences"
	if !theme.Valid() {
		return s.run.fail(op, validation.ValidationError{Field: "theme", Message: "unknown theme"})
	}
	return s.run.Write(ctx, op, func(ctx context.Context) error {
		return s.users.UpdatePreferences(ctx, userID, theme, notifications)
	})
}

// UpdateProfile changes name, email and photo
func (s *UserService) UpdateProfile(ctx context.Context, u *models.User) error {
	const op = "update profile"
	u.Name = strings.TrimSpace(u.Name)
	if err := validation.Struct(u); err != nil {
		return s.run.fail(op, err)
	}
	return s.run.Write(ctx, op, func(ctx context.Context) error {
		return s.users.Update(ctx, u)
	})
}

// Get returns an account, or nil when it does not exist
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return read(ctx, s.run, "get user", func(ctx context.Context) (*models.User, error) {
		return s.users.ByID(ctx, id)
	})
}

// Delete removes an account
func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.run.Write(ctx, "delete user", func(ctx context.Context) error {
		return s.users.Delete(ctx, id)
	})
}
