package tracker

import (
	"context"
	"fmt"

	"github.com/me/chorewheel/pkg/model"
)

// RequestMembershipInput invites the user with email ToEmail into a space.
type RequestMembershipInput struct {
	SpaceID    string
	FromUserID string
	ToEmail    string
}

// RequestMembership records an invitation. Only members may invite, and a
// user can hold one pending invitation per space.
func (s *Service) RequestMembership(ctx context.Context, in RequestMembershipInput) (*model.MembershipRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.mustSpace(ctx, in.SpaceID); err != nil {
		return nil, err
	}
	from, err := s.store.GetSpaceMember(ctx, in.SpaceID, in.FromUserID)
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	if from == nil {
		return nil, model.NewForbiddenError(fmt.Sprintf("not a member of space %s", in.SpaceID))
	}

	email := normalizeEmail(in.ToEmail)
	to, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if to == nil {
		return nil, model.NewNotFoundError("user", email)
	}
	already, err := s.store.GetSpaceMember(ctx, in.SpaceID, to.ID)
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	if already != nil {
		return nil, model.NewConflictError(fmt.Sprintf("user '%s' is already a member", email))
	}
	pending, err := s.store.FindPendingRequest(ctx, in.SpaceID, to.ID)
	if err != nil {
		return nil, fmt.Errorf("find pending request: %w", err)
	}
	if pending != nil {
		return nil, model.NewConflictError(fmt.Sprintf("user '%s' already has a pending request (%s)", email, pending.ID))
	}

	r := &model.MembershipRequest{
		ID:         model.NewID(model.PrefixRequest),
		SpaceID:    in.SpaceID,
		FromUserID: in.FromUserID,
		ToUserID:   to.ID,
		Status:     model.RequestPending,
		CreatedAt:  s.now(),
	}
	if err := s.store.CreateRequest(ctx, r); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	s.logger.Info("membership requested", "request_id", r.ID, "space_id", r.SpaceID,
		"from", r.FromUserID, "to", r.ToUserID)
	return r, nil
}

// ListRequests returns the requests a user sent or received, newest first.
func (s *Service) ListRequests(ctx context.Context, userID string) ([]*model.MembershipRequest, error) {
	return s.store.ListRequests(ctx, userID)
}

// RespondRequest accepts or declines a pending request. Only the invited
// user may answer; accepting adds them to the space.
func (s *Service) RespondRequest(ctx context.Context, id, userID string, accept bool) (*model.MembershipRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if r == nil {
		return nil, model.NewNotFoundError("request", id)
	}
	if r.ToUserID != userID {
		return nil, model.NewForbiddenError("only the invited user may answer a request")
	}
	if !r.IsPending() {
		return nil, model.NewConflictError(fmt.Sprintf("request %s is already %s", id, r.Status))
	}

	if accept {
		if err := s.addMemberLocked(ctx, r.SpaceID, r.ToUserID); err != nil {
			return nil, err
		}
		r.Status = model.RequestAccepted
	} else {
		r.Status = model.RequestDeclined
	}
	now := s.now()
	r.RespondedAt = &now
	if err := s.store.UpdateRequest(ctx, r); err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}
	s.logger.Info("membership request answered", "request_id", r.ID, "status", r.Status)
	return r, nil
}
