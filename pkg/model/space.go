package model

import "time"

// Space groups users and chores. Spaces form a tree; a child space starts
// with the members of its parent.
type Space struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FullName  string    `json:"full_name"`           // slash-joined names from the root
	ParentID  string    `json:"parent_id,omitempty"` // empty for root spaces
	CreatedAt time.Time `json:"created_at"`
}

// IsRoot returns true if the space has no parent.
func (s *Space) IsRoot() bool {
	return s.ParentID == ""
}

// SpaceMember records a user's membership of a space.
type SpaceMember struct {
	SpaceID   string    `json:"space_id"`
	UserID    string    `json:"user_id"`
	Available bool      `json:"available"`
	JoinedAt  time.Time `json:"joined_at"`
}
