package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/me/chorewheel/pkg/model"
)

// CreateSpaceInput describes a new space.
type CreateSpaceInput struct {
	Name      string
	ParentID  string // empty for a root space
	CreatorID string // joins a root space as its first member
}

// CreateSpace creates a space. A child space starts with a copy of its
// parent's members, including their availability.
func (s *Service) CreateSpace(ctx context.Context, in CreateSpaceInput) (*model.Space, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.Contains(name, "/") {
		return nil, model.NewValidationError("Invalid space",
			model.FieldError{Field: "name", Message: "required and must not contain '/'"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sp := &model.Space{
		ID:        model.NewID(model.PrefixSpace),
		Name:      name,
		FullName:  name,
		ParentID:  in.ParentID,
		CreatedAt: s.now(),
	}

	var inherited []*model.SpaceMember
	if in.ParentID != "" {
		parent, err := s.mustSpace(ctx, in.ParentID)
		if err != nil {
			return nil, err
		}
		sp.FullName = parent.FullName + "/" + name
		inherited, err = s.store.ListSpaceMembers(ctx, parent.ID)
		if err != nil {
			return nil, fmt.Errorf("list parent members: %w", err)
		}
	}

	var creator *model.User
	if in.CreatorID != "" {
		var err error
		if creator, err = s.mustUser(ctx, in.CreatorID); err != nil {
			return nil, err
		}
	}

	if err := s.store.CreateSpace(ctx, sp); err != nil {
		return nil, fmt.Errorf("create space: %w", err)
	}

	now := s.now()
	for _, m := range inherited {
		if err := s.store.AddSpaceMember(ctx, &model.SpaceMember{
			SpaceID: sp.ID, UserID: m.UserID, Available: m.Available, JoinedAt: now,
		}); err != nil {
			return nil, fmt.Errorf("inherit member: %w", err)
		}
	}
	if creator != nil {
		if err := s.store.AddSpaceMember(ctx, &model.SpaceMember{
			SpaceID: sp.ID, UserID: creator.ID, Available: true, JoinedAt: now,
		}); err != nil {
			return nil, fmt.Errorf("add creator: %w", err)
		}
	}

	s.logger.Info("space created", "space_id", sp.ID, "full_name", sp.FullName, "inherited", len(inherited))
	return sp, nil
}

// GetSpace returns a space by id.
func (s *Service) GetSpace(ctx context.Context, id string) (*model.Space, error) {
	return s.mustSpace(ctx, id)
}

// ListSpaces returns a page of spaces and the total count.
func (s *Service) ListSpaces(ctx context.Context, opts model.ListOptions) ([]*model.Space, int, error) {
	return s.store.ListSpaces(ctx, opts)
}

// ListMembers returns the members of a space.
func (s *Service) ListMembers(ctx context.Context, spaceID string) ([]*model.SpaceMember, error) {
	if _, err := s.mustSpace(ctx, spaceID); err != nil {
		return nil, err
	}
	return s.store.ListSpaceMembers(ctx, spaceID)
}

// UpdateSpaceInput holds the space fields that may change. Nil fields are
// left alone; an empty ParentID moves the space to the root.
type UpdateSpaceInput struct {
	Name     *string
	ParentID *string
}

// UpdateSpace renames or moves a space and rewrites the full name of every
// space below it. Moving a space does not change anyone's membership.
func (s *Service) UpdateSpace(ctx context.Context, id string, in UpdateSpaceInput) (*model.Space, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || strings.Contains(name, "/") {
			return nil, model.NewValidationError("Invalid space update",
				model.FieldError{Field: "name", Message: "required and must not contain '/'"})
		}
		in.Name = &name
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sp, err := s.mustSpace(ctx, id)
	if err != nil {
		return nil, err
	}
	spaces, err := s.subtree(ctx, sp)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		sp.Name = *in.Name
	}
	if in.ParentID != nil {
		for _, below := range spaces {
			if below.ID == *in.ParentID {
				return nil, model.NewValidationError("Invalid space update",
					model.FieldError{Field: "parent_id", Message: "a space cannot move below itself"})
			}
		}
		sp.ParentID = *in.ParentID
	}

	sp.FullName = sp.Name
	if sp.ParentID != "" {
		parent, err := s.mustSpace(ctx, sp.ParentID)
		if err != nil {
			return nil, err
		}
		sp.FullName = parent.FullName + "/" + sp.Name
	}

	// subtree lists parents before children, so each parent's new full
	// name is known by the time its children are rewritten.
	full := map[string]string{sp.ID: sp.FullName}
	spaces[0] = sp
	for _, space := range spaces {
		if space.ID != sp.ID {
			space.FullName = full[space.ParentID] + "/" + space.Name
			full[space.ID] = space.FullName
		}
		if err := s.store.UpdateSpace(ctx, space); err != nil {
			return nil, fmt.Errorf("update space %s: %w", space.ID, err)
		}
	}

	s.logger.Info("space updated", "space_id", sp.ID, "full_name", sp.FullName, "subtree", len(spaces))
	return sp, nil
}

// AddMember adds a user to a space and every space below it, and makes the
// user a participant of all chores in those spaces. New participants start
// at the chore's current minimum virtual work so they do not owe turns that
// happened before they joined.
func (s *Service) AddMember(ctx context.Context, spaceID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addMemberLocked(ctx, spaceID, userID)
}

func (s *Service) addMemberLocked(ctx context.Context, spaceID, userID string) error {
	sp, err := s.mustSpace(ctx, spaceID)
	if err != nil {
		return err
	}
	if _, err := s.mustUser(ctx, userID); err != nil {
		return err
	}
	spaces, err := s.subtree(ctx, sp)
	if err != nil {
		return err
	}

	now := s.now()
	for _, space := range spaces {
		if err := s.store.AddSpaceMember(ctx, &model.SpaceMember{
			SpaceID: space.ID, UserID: userID, Available: true, JoinedAt: now,
		}); err != nil {
			return fmt.Errorf("add member to %s: %w", space.ID, err)
		}
		member, err := s.store.GetSpaceMember(ctx, space.ID, userID)
		if err != nil {
			return fmt.Errorf("get member: %w", err)
		}

		chores, err := s.allChores(ctx, model.ListOptions{SpaceID: space.ID})
		if err != nil {
			return err
		}
		for _, c := range chores {
			added, err := s.ensureParticipant(ctx, c, userID, member.Available)
			if err != nil {
				return err
			}
			if added {
				if err := s.refreshLocked(ctx, c); err != nil {
					return err
				}
			}
		}
	}

	s.logger.Info("member added", "space_id", spaceID, "user_id", userID, "spaces", len(spaces))
	return nil
}

func (s *Service) ensureParticipant(ctx context.Context, c *model.Chore, userID string, available bool) (bool, error) {
	existing, err := s.store.GetParticipant(ctx, c.ID, userID)
	if err != nil {
		return false, fmt.Errorf("get participant: %w", err)
	}
	if existing != nil {
		return false, nil
	}
	p := &model.Participant{
		ChoreID:   c.ID,
		UserID:    userID,
		VWork:     c.MinVWork,
		Weight:    model.DefaultWeight,
		Available: available,
	}
	if err := s.store.CreateParticipant(ctx, p); err != nil {
		return false, fmt.Errorf("create participant: %w", err)
	}
	return true, nil
}

// SetSpaceAvailability marks a member (un)available in a space and every
// space below it, and applies the same change to their chores there.
func (s *Service) SetSpaceAvailability(ctx context.Context, spaceID, userID string, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, err := s.mustSpace(ctx, spaceID)
	if err != nil {
		return err
	}
	member, err := s.store.GetSpaceMember(ctx, spaceID, userID)
	if err != nil {
		return fmt.Errorf("get member: %w", err)
	}
	if member == nil {
		return model.NewNotFoundError("space member", spaceID+"/"+userID)
	}
	spaces, err := s.subtree(ctx, sp)
	if err != nil {
		return err
	}

	for _, space := range spaces {
		m, err := s.store.GetSpaceMember(ctx, space.ID, userID)
		if err != nil {
			return fmt.Errorf("get member: %w", err)
		}
		if m == nil {
			continue
		}
		m.Available = available
		if err := s.store.UpdateSpaceMember(ctx, m); err != nil {
			return fmt.Errorf("update member: %w", err)
		}

		chores, err := s.allChores(ctx, model.ListOptions{SpaceID: space.ID})
		if err != nil {
			return err
		}
		for _, c := range chores {
			p, err := s.store.GetParticipant(ctx, c.ID, userID)
			if err != nil {
				return fmt.Errorf("get participant: %w", err)
			}
			if p == nil {
				continue
			}
			if err := s.setAvailabilityLocked(ctx, c, p, available); err != nil {
				return err
			}
		}
	}

	s.logger.Info("space availability changed", "space_id", spaceID, "user_id", userID, "available", available)
	return nil
}
