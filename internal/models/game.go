package models

// Game is an entry of the activity catalogue
type Game struct {
	ID              int64
	Title           string `validate:"required,max=200"`
	Description     string
	Category        string `validate:"required,max=100"`
	MinAge          *int   `validate:"omitempty,gte=0"`
	MaxAge          *int   `validate:"omitempty,gte=0"`
	MinPlayers      *int   `validate:"omitempty,gte=1"`
	MaxPlayers      *int   `validate:"omitempty,gte=1"`
	DurationMinutes *int   `validate:"omitempty,gte=1"`
	Materials       *string
}

// SuitsAge reports whether age falls inside the game's age bounds.
// Missing bounds are open.
func (g Game) SuitsAge(age int) bool {
	if g.MinAge != nil && age < *g.MinAge {
		return false
	}
	if g.MaxAge != nil && age > *g.MaxAge {
		return false
	}
	return true
}

// SuitsPlayers reports whether a group of n fits the player bounds
func (g Game) SuitsPlayers(n int) bool {
	if g.MinPlayers != nil && n < *g.MinPlayers {
		return false
	}
	if g.MaxPlayers != nil && n > *g.MaxPlayers {
		return false
	}
	return true
}
