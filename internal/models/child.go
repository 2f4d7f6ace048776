package models

import "time"

// Child represents a camper tracked by the counselors
type Child struct {
	ID           int64
	Name         string `validate:"required,max=100"`
	LastName     string `validate:"required,max=100"`
	Age          int    `validate:"gte=0,lte=25"`
	SquadName    string `validate:"required,max=100"`
	PhotoURL     *string
	ParentPhone  *string `validate:"omitempty,max=32"`
	ParentEmail  *string `validate:"omitempty,email"`
	Address      *string
	MedicalNotes *string
	CreatedAt    time.Time
}

// FullName returns "Name LastName"
func (c Child) FullName() string {
	if c.LastName == "" {
		return c.Name
	}
	return c.Name + " " + c.LastName
}

// ChildWithDetails combines a child with their notes and achievements
type ChildWithDetails struct {
	Child        Child
	Notes        []Note
	Achievements []Achievement
}

// TotalPoints sums the points of all achievements
func (d ChildWithDetails) TotalPoints() int {
	total := 0
	for _, a := range d.Achievements {
		total += a.Points
	}
	return total
}

// ChildRanking is a leaderboard row
type ChildRanking struct {
	ID          int64
	Name        string
	LastName    string
	SquadName   string
	TotalPoints int
	PhotoURL    *string
}
