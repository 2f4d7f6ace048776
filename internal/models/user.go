package models

import "time"

// Theme is the UI theme preference
type Theme int

const (
	ThemeLight Theme = 0
	ThemeDark  Theme = 1
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// User represents a counselor account
type User struct {
	ID                   int64
	Name                 string `validate:"required,min=2,max=100"`
	Email                string `validate:"required,email"`
	PasswordHash         string
	PhotoURL             *string
	Theme                Theme `validate:"oneof=0 1"`
	NotificationsEnabled bool
	LastLoginAt          *time.Time
	CreatedAt            time.Time
}
