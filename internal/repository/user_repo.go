package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vozhatapp/internal/database"
	"vozhatapp/internal/models"
)

const userColumns = `id, name, email, password_hash, photo_url, theme, notifications_enabled,
	last_login_at, created_at`

// UserRepository handles database operations for counselor accounts
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(s rowScanner) (models.User, error) {
	var (
		u         models.User
		photo     sql.NullString
		lastLogin sql.NullInt64
		createdAt int64
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &photo, &u.Theme,
		&u.NotificationsEnabled, &lastLogin, &createdAt); err != nil {
		return u, fmt.Errorf("failed to scan user: %w", err)
	}
	u.PhotoURL = database.StringPtr(photo)
	u.LastLoginAt = database.TimePtr(lastLogin)
	u.CreatedAt = database.FromMillis(createdAt)
	return u, nil
}

func (r *UserRepository) get(ctx context.Context, where string, arg any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// ByID retrieves a user by ID
func (r *UserRepository) ByID(ctx context.Context, id int64) (*models.User, error) {
	return r.get(ctx, "id = ?", id)
}

// ByEmail looks a user up by email address, ignoring case
func (r *UserRepository) ByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.get(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

// All retrieves every account ordered by name
func (r *UserRepository) All(ctx context.Context) ([]models.User, error) {
	users, err := queryList(ctx, r.db, scanUser, "SELECT "+userColumns+" FROM users ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return users, nil
}

// Insert stores a new user. The email is stored lower-cased.
func (r *UserRepository) Insert(ctx context.Context, u *models.User) (int64, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	id, err := r.db.ExecReturningID(ctx, `INSERT INTO users (name, email, password_hash, photo_url, theme,
		notifications_enabled, last_login_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash, database.NullString(u.PhotoURL), int(u.Theme),
		u.NotificationsEnabled, database.NullMillis(u.LastLoginAt), database.ToMillis(u.CreatedAt))
	if err != nil {
		return 0, wrapWrite(r.db.Dialect, "create user", err)
	}
	u.ID = id
	r.db.Changed(database.TableUsers)
	return id, nil
}

// Update replaces the profile columns. The password hash is left alone.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.db.ExecContext(ctx, `UPDATE users SET name = ?, email = ?, photo_url = ?, theme = ?,
		notifications_enabled = ?, last_login_at = ? WHERE id = ?`,
		u.Name, u.Email, database.NullString(u.PhotoURL), int(u.Theme), u.NotificationsEnabled,
		database.NullMillis(u.LastLoginAt), u.ID)
	return r.finish(res, err, "update user", u.ID)
}

// UpdatePassword stores a new password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", passwordHash, id)
	return r.finish(res, err, "update password", id)
}

// UpdateLastLogin records a successful sign-in
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET last_login_at = ? WHERE id = ?", database.ToMillis(at), id)
	return r.finish(res, err, "update last login", id)
}

// UpdatePreferences stores the theme and notification settings
func (r *UserRepository) UpdatePreferences(ctx context.Context, id int64, theme models.Theme, notifications bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET theme = ?, notifications_enabled = ? WHERE id = ?",
		int(theme), notifications, id)
	return r.finish(res, err, "update preferences", id)
}

// Delete removes an account. Events and marks keep the user's ID.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id); err != nil {
		return wrapWrite(r.db.Dialect, "delete user", err)
	}
	r.db.Changed(database.TableUsers)
	return nil
}

// finish maps an update result, reporting ErrNotFound when no row matched
func (r *UserRepository) finish(res sql.Result, err error, what string, id int64) error {
	if err != nil {
		return wrapWrite(r.db.Dialect, what, err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("failed to %s for user %d: %w", what, id, err)
	}
	r.db.Changed(database.TableUsers)
	return nil
}
