package models

import "time"

// Achievement represents points awarded to a child
type Achievement struct {
	ID          int64
	ChildID     int64  `validate:"required"`
	Title       string `validate:"required,max=200"`
	Description *string
	Points      int
	Date        time.Time
}
