package model

import "time"

const (
	// DefaultInterval is the number of days between turns when a chore is
	// created without one.
	DefaultInterval = 7
	// DefaultWeight is the virtual work added per completed turn for a new
	// participant.
	DefaultWeight = 1.0
)

// Chore is a recurring task shared by the members of a space.
type Chore struct {
	ID         string     `json:"id"`
	SpaceID    string     `json:"space_id"`
	Name       string     `json:"name"`
	Interval   int        `json:"interval"` // days between turns
	NextUserID string     `json:"next_user_id,omitempty"`
	LastUserID string     `json:"last_user_id,omitempty"`
	NextDate   *time.Time `json:"next_date,omitempty"`
	LastDate   *time.Time `json:"last_date,omitempty"`
	StartDate  time.Time  `json:"start_date"`
	MinVWork   float64    `json:"min_vwork"` // least vwork among available participants
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// DueDate returns the day the next turn falls on: one interval after the
// last completion, or the start date if the chore was never done.
func (c *Chore) DueDate() time.Time {
	if c.LastDate != nil {
		return AddDays(*c.LastDate, c.Interval)
	}
	return Day(c.StartDate)
}

// Participant links a user to a chore and carries the fairness counters.
type Participant struct {
	ChoreID   string  `json:"chore_id"`
	UserID    string  `json:"user_id"`
	VWork     float64 `json:"vwork"`  // accumulated virtual work
	Work      int     `json:"work"`   // completed turns
	Weight    float64 `json:"weight"` // vwork added per turn
	Available bool    `json:"available"`
}

// Completion records one finished turn.
type Completion struct {
	ID          string    `json:"id"`
	ChoreID     string    `json:"chore_id"`
	UserID      string    `json:"user_id"`
	CompletedOn time.Time `json:"completed_on"`
	VWork       float64   `json:"vwork"` // participant vwork after the turn
	RecordedAt  time.Time `json:"recorded_at"`
}

// Occurrence is a projected future turn of a chore.
type Occurrence struct {
	ChoreID   string    `json:"chore_id"`
	ChoreName string    `json:"chore_name"`
	UserID    string    `json:"user_id"`
	Date      time.Time `json:"date"`
	Offset    float64   `json:"offset"` // days from the projection's reference day
}
