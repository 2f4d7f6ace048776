package validation

import (
	"errors"
	"testing"
	"time"

	"vozhatapp/internal/models"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{
			name:    "valid email",
			email:   "test@example.com",
			wantErr: false,
		},
		{
			name:    "valid email with subdomain",
			email:   "user@mail.example.com",
			wantErr: false,
		},
		{
			name:    "valid email with plus",
			email:   "user+tag@example.com",
			wantErr: false,
		},
		{
			name:    "missing @",
			email:   "testexample.com",
			wantErr: true,
		},
		{
			name:    "missing domain",
			email:   "test@",
			wantErr: true,
		},
		{
			name:    "missing local part",
			email:   "@example.com",
			wantErr: true,
		},
		{
			name:    "empty string",
			email:   "",
			wantErr: true,
		},
		{
			name:    "spaces in email",
			email:   "test @example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "valid name",
			input:   "John Doe",
			wantErr: false,
		},
		{
			name:    "single name",
			input:   "John",
			wantErr: false,
		},
		{
			name:    "empty name",
			input:   "",
			wantErr: true,
		},
		{
			name:    "name too short",
			input:   "J",
			wantErr: true,
		},
		{
			name:    "name with hyphen",
			input:   "Mary-Jane",
			wantErr: false,
		},
		{
			name:    "cyrillic name",
			input:   "Аня",
			wantErr: false,
		},
		{
			name:    "whitespace only",
			input:   "   ",
			wantErr: true,
		},
		{
			name:    "name with apostrophe",
			input:   "O'Brien",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "valid password",
			password: "password123",
			wantErr:  false,
		},
		{
			name:     "password exactly 8 characters",
			password: "pass1234",
			wantErr:  false,
		},
		{
			name:     "password too short",
			password: "pass123",
			wantErr:  true,
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  true,
		},
		{
			name:     "long password",
			password: "thisIsAVeryLongPasswordThatShouldBeValid123",
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStructChild(t *testing.T) {
	badEmail := "not-an-email"
	tests := []struct {
		name       string
		child      models.Child
		wantFields []string
	}{
		{
			name:  "valid child",
			child: models.Child{Name: "Anna", LastName: "Petrova", Age: 10, SquadName: "A"},
		},
		{
			name:       "missing names",
			child:      models.Child{Age: 10, SquadName: "A"},
			wantFields: []string{"Name", "LastName"},
		},
		{
			name:       "age out of range",
			child:      models.Child{Name: "Anna", LastName: "P", Age: 40, SquadName: "A"},
			wantFields: []string{"Age"},
		},
		{
			name:       "bad parent email",
			child:      models.Child{Name: "Anna", LastName: "P", Age: 9, SquadName: "A", ParentEmail: &badEmail},
			wantFields: []string{"ParentEmail"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.child)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Struct() error = %v, want nil", err)
				}
				return
			}
			var errs Errors
			if !errors.As(err, &errs) {
				t.Fatalf("Struct() error = %v, want Errors", err)
			}
			got := map[string]bool{}
			for _, fe := range errs {
				got[fe.Field] = true
			}
			for _, f := range tt.wantFields {
				if !got[f] {
					t.Errorf("missing error for field %s in %v", f, errs)
				}
			}
		})
	}
}

func TestStructEvent(t *testing.T) {
	start := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		event   models.Event
		wantErr bool
	}{
		{"valid", models.Event{Title: "Hike", StartTime: start, EndTime: start.Add(time.Hour)}, false},
		{"instant event", models.Event{Title: "Bell", StartTime: start, EndTime: start}, false},
		{"ends before start", models.Event{Title: "Hike", StartTime: start, EndTime: start.Add(-time.Hour)}, true},
		{"status out of enum", models.Event{Title: "Hike", StartTime: start, EndTime: start, Status: 3}, true},
		{"missing title", models.Event{StartTime: start, EndTime: start}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Struct(tt.event); (err != nil) != tt.wantErr {
				t.Errorf("Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStructNoteReminderNeedsDate(t *testing.T) {
	at := time.Now()
	if err := Struct(models.Note{Title: "Call", Type: models.NoteReminder}); err == nil {
		t.Error("reminder without date should fail")
	}
	if err := Struct(models.Note{Title: "Call", Type: models.NoteReminder, ReminderDate: &at}); err != nil {
		t.Errorf("reminder with date: %v", err)
	}
	if err := Struct(models.Note{Title: "Idea", Type: models.NotePlain}); err != nil {
		t.Errorf("plain note: %v", err)
	}
}
