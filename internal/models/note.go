package models

import "time"

// NoteType distinguishes plain notes from reminders
type NoteType int

const (
	NotePlain    NoteType = 0
	NoteReminder NoteType = 1
)

func (t NoteType) Valid() bool {
	return t == NotePlain || t == NoteReminder
}

func (t NoteType) String() string {
	switch t {
	case NotePlain:
		return "plain"
	case NoteReminder:
		return "reminder"
	}
	return "unknown"
}

// Note is a counselor note, optionally attached to a child.
// ReminderDate is only meaningful when Type is NoteReminder.
type Note struct {
	ID           int64
	Title        string `validate:"required,max=200"`
	Content      string
	ChildID      *int64
	Type         NoteType   `validate:"oneof=0 1"`
	ReminderDate *time.Time `validate:"required_if=Type 1"`
	CreatedAt    time.Time
}

// IsGeneral reports whether the note is not attached to a child
func (n Note) IsGeneral() bool {
	return n.ChildID == nil
}

// IsReminder reports whether the note carries a reminder
func (n Note) IsReminder() bool {
	return n.Type == NoteReminder && n.ReminderDate != nil
}
