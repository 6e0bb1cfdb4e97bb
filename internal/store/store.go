package store

import (
	"context"
	"time"

	"github.com/me/chorewheel/pkg/model"
)

// Store defines the persistence layer for chorewheel entities.
// Get methods return (nil, nil) when the row does not exist.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, opts model.ListOptions) ([]*model.User, int, error)
	UpdateUser(ctx context.Context, u *model.User) error

	// Sessions
	CreateSession(ctx context.Context, sess *model.Session) error
	GetSession(ctx context.Context, tokenHash string) (*model.Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)

	// Spaces
	CreateSpace(ctx context.Context, sp *model.Space) error
	GetSpace(ctx context.Context, id string) (*model.Space, error)
	ListSpaces(ctx context.Context, opts model.ListOptions) ([]*model.Space, int, error)
	ListChildSpaces(ctx context.Context, parentID string) ([]*model.Space, error)
	UpdateSpace(ctx context.Context, sp *model.Space) error

	// Membership
	AddSpaceMember(ctx context.Context, m *model.SpaceMember) error
	GetSpaceMember(ctx context.Context, spaceID, userID string) (*model.SpaceMember, error)
	ListSpaceMembers(ctx context.Context, spaceID string) ([]*model.SpaceMember, error)
	UpdateSpaceMember(ctx context.Context, m *model.SpaceMember) error

	// Membership requests
	CreateRequest(ctx context.Context, r *model.MembershipRequest) error
	GetRequest(ctx context.Context, id string) (*model.MembershipRequest, error)
	FindPendingRequest(ctx context.Context, spaceID, toUserID string) (*model.MembershipRequest, error)
	ListRequests(ctx context.Context, userID string) ([]*model.MembershipRequest, error)
	UpdateRequest(ctx context.Context, r *model.MembershipRequest) error

	// Chores
	CreateChore(ctx context.Context, c *model.Chore) error
	GetChore(ctx context.Context, id string) (*model.Chore, error)
	ListChores(ctx context.Context, opts model.ListOptions) ([]*model.Chore, int, error)
	UpdateChore(ctx context.Context, c *model.Chore) error
	ListOverdueChores(ctx context.Context, before time.Time) ([]*model.Chore, error)

	// Participants
	CreateParticipant(ctx context.Context, p *model.Participant) error
	GetParticipant(ctx context.Context, choreID, userID string) (*model.Participant, error)
	ListParticipants(ctx context.Context, choreID string) ([]*model.Participant, error)
	ListParticipantsByUser(ctx context.Context, userID string) ([]*model.Participant, error)
	UpdateParticipant(ctx context.Context, p *model.Participant) error

	// Completions
	CreateCompletion(ctx context.Context, c *model.Completion) error
	ListCompletions(ctx context.Context, choreID string, limit int) ([]*model.Completion, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
