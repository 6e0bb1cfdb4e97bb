package model

import "time"

// RequestStatus is the state of a membership request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// MembershipRequest invites a user into a space. It is created by a member
// of the space and answered by the invited user.
type MembershipRequest struct {
	ID          string        `json:"id"`
	SpaceID     string        `json:"space_id"`
	FromUserID  string        `json:"from_user_id"`
	ToUserID    string        `json:"to_user_id"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	RespondedAt *time.Time    `json:"responded_at,omitempty"`
}

// IsPending reports whether the request still awaits an answer.
func (r *MembershipRequest) IsPending() bool {
	return r.Status == RequestPending
}
