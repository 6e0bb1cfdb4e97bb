package model

import "time"

// User is a person who can belong to spaces and take turns at chores.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"-"`
}

// DisplayName returns Name, falling back to Email.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
