package tracker

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/me/chorewheel/pkg/cfs"
	"github.com/me/chorewheel/pkg/model"
)

// CreateChoreInput describes a new chore.
type CreateChoreInput struct {
	SpaceID   string
	Name      string
	Interval  int        // 0 means model.DefaultInterval
	StartDate *time.Time // nil means today
}

// UpdateChoreInput holds the chore fields that may change. Nil fields are
// left alone.
type UpdateChoreInput struct {
	Name     *string
	Interval *int
}

// CreateChore creates a chore in a space. Every current member of the space
// becomes a participant with the default weight.
func (s *Service) CreateChore(ctx context.Context, in CreateChoreInput) (*model.Chore, error) {
	name := strings.TrimSpace(in.Name)
	var details []model.FieldError
	if name == "" {
		details = append(details, model.FieldError{Field: "name", Message: "required"})
	}
	if in.Interval < 0 {
		details = append(details, model.FieldError{Field: "interval", Message: "must be positive"})
	}
	if len(details) > 0 {
		return nil, model.NewValidationError("Invalid chore", details...)
	}
	interval := in.Interval
	if interval == 0 {
		interval = model.DefaultInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.mustSpace(ctx, in.SpaceID); err != nil {
		return nil, err
	}
	members, err := s.store.ListSpaceMembers(ctx, in.SpaceID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	start := s.Today()
	if in.StartDate != nil {
		start = model.Day(*in.StartDate)
	}
	now := s.now()
	c := &model.Chore{
		ID:        model.NewID(model.PrefixChore),
		SpaceID:   in.SpaceID,
		Name:      name,
		Interval:  interval,
		StartDate: start,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateChore(ctx, c); err != nil {
		return nil, fmt.Errorf("create chore: %w", err)
	}
	for _, m := range members {
		if _, err := s.ensureParticipant(ctx, c, m.UserID, m.Available); err != nil {
			return nil, err
		}
	}
	if err := s.refreshLocked(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("chore created", "chore_id", c.ID, "space_id", c.SpaceID,
		"interval", c.Interval, "participants", len(members))
	return c, nil
}

// GetChore returns a chore by id.
func (s *Service) GetChore(ctx context.Context, id string) (*model.Chore, error) {
	return s.mustChore(ctx, id)
}

// ListChores returns a page of chores and the total count.
func (s *Service) ListChores(ctx context.Context, opts model.ListOptions) ([]*model.Chore, int, error) {
	return s.store.ListChores(ctx, opts)
}

// UpdateChore renames a chore or changes its interval.
func (s *Service) UpdateChore(ctx context.Context, id string, in UpdateChoreInput) (*model.Chore, error) {
	var details []model.FieldError
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		details = append(details, model.FieldError{Field: "name", Message: "must not be empty"})
	}
	if in.Interval != nil && *in.Interval <= 0 {
		details = append(details, model.FieldError{Field: "interval", Message: "must be positive"})
	}
	if len(details) > 0 {
		return nil, model.NewValidationError("Invalid chore update", details...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.mustChore(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Interval != nil {
		c.Interval = *in.Interval
	}
	if err := s.refreshLocked(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListParticipants returns the participants of a chore.
func (s *Service) ListParticipants(ctx context.Context, choreID string) ([]*model.Participant, error) {
	if _, err := s.mustChore(ctx, choreID); err != nil {
		return nil, err
	}
	return s.store.ListParticipants(ctx, choreID)
}

// ListCompletions returns up to limit recent completions of a chore.
func (s *Service) ListCompletions(ctx context.Context, choreID string, limit int) ([]*model.Completion, error) {
	if _, err := s.mustChore(ctx, choreID); err != nil {
		return nil, err
	}
	return s.store.ListCompletions(ctx, choreID, limit)
}

// SetWeight changes the virtual work a participant accrues per turn.
func (s *Service) SetWeight(ctx context.Context, choreID, userID string, weight float64) (*model.Participant, error) {
	if !(weight > 0) || math.IsInf(weight, 0) {
		return nil, model.NewValidationError("Invalid weight",
			model.FieldError{Field: "weight", Message: "must be a positive finite number"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.mustParticipant(ctx, choreID, userID)
	if err != nil {
		return nil, err
	}
	p.Weight = weight
	if err := s.store.UpdateParticipant(ctx, p); err != nil {
		return nil, fmt.Errorf("update participant: %w", err)
	}
	s.logger.Info("weight changed", "chore_id", choreID, "user_id", userID, "weight", weight)
	return p, nil
}

// CompleteChore records a finished turn by userID on the given day (today
// when nil). Any participant may complete a turn, not only the assignee.
func (s *Service) CompleteChore(ctx context.Context, choreID, userID string, on *time.Time) (*model.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.Today()
	day := today
	if on != nil {
		day = model.Day(*on)
	}
	if day.After(today) {
		return nil, model.NewValidationError("Invalid completion",
			model.FieldError{Field: "date", Message: "must not be in the future"})
	}

	c, err := s.mustChore(ctx, choreID)
	if err != nil {
		return nil, err
	}
	p, err := s.mustParticipant(ctx, choreID, userID)
	if err != nil {
		return nil, err
	}
	parts, err := s.store.ListParticipants(ctx, choreID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	ledger, weights := ledgerOf(parts, func(*model.Participant) bool { return true })
	ledger, err = cfs.Complete(ledger, userID, weights)
	if err != nil {
		return nil, fmt.Errorf("complete turn: %w", err)
	}
	i, _ := ledger.Index(userID)
	p.VWork = ledger[i].VWork
	p.Work++
	if err := s.store.UpdateParticipant(ctx, p); err != nil {
		return nil, fmt.Errorf("update participant: %w", err)
	}

	comp := &model.Completion{
		ID:          model.NewID(model.PrefixCompletion),
		ChoreID:     choreID,
		UserID:      userID,
		CompletedOn: day,
		VWork:       p.VWork,
		RecordedAt:  s.now(),
	}
	if err := s.store.CreateCompletion(ctx, comp); err != nil {
		return nil, fmt.Errorf("create completion: %w", err)
	}

	// A back-dated turn does not rewind the chore's position.
	if c.LastDate == nil || !day.Before(*c.LastDate) {
		c.LastUserID = userID
		c.LastDate = &day
	}
	if err := s.refreshLocked(ctx, c); err != nil {
		return nil, err
	}

	s.metrics.ChoreCompleted()
	s.logger.Info("chore completed", "chore_id", choreID, "user_id", userID,
		"on", day.Format(model.DateFormat), "vwork", p.VWork, "next_user_id", c.NextUserID)
	return comp, nil
}

// SetChoreAvailability marks a participant (un)available for one chore.
func (s *Service) SetChoreAvailability(ctx context.Context, choreID, userID string, available bool) (*model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.mustChore(ctx, choreID)
	if err != nil {
		return nil, err
	}
	p, err := s.mustParticipant(ctx, choreID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.setAvailabilityLocked(ctx, c, p, available); err != nil {
		return nil, err
	}
	return p, nil
}

// setAvailabilityLocked updates one participant's availability. A returning
// participant is raised to the chore's minimum vwork so time away does not
// turn into a backlog of turns.
func (s *Service) setAvailabilityLocked(ctx context.Context, c *model.Chore, p *model.Participant, available bool) error {
	if p.Available == available {
		return nil
	}
	p.Available = available
	if available && p.VWork < c.MinVWork {
		p.VWork = c.MinVWork
	}
	if err := s.store.UpdateParticipant(ctx, p); err != nil {
		return fmt.Errorf("update participant: %w", err)
	}
	s.logger.Debug("participant availability changed", "chore_id", c.ID, "user_id", p.UserID,
		"available", available, "vwork", p.VWork)
	return s.refreshLocked(ctx, c)
}

// Refresh recomputes a chore's next assignee and next date.
func (s *Service) Refresh(ctx context.Context, choreID string) (*model.Chore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.mustChore(ctx, choreID)
	if err != nil {
		return nil, err
	}
	if err := s.refreshLocked(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// refreshLocked derives the chore's next assignee from the available
// participants and stores the chore. The next date is the due date, but
// never earlier than today. With nobody available the chore has neither.
func (s *Service) refreshLocked(ctx context.Context, c *model.Chore) error {
	parts, err := s.store.ListParticipants(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	ledger, _ := ledgerOf(parts, isAvailable)

	prev := c.NextUserID
	next, ok := ledger.Next(c.LastUserID)
	if ok {
		c.NextUserID = next
		c.MinVWork = ledger[0].VWork
		due := c.DueDate()
		if today := s.Today(); due.Before(today) {
			due = today
		}
		c.NextDate = &due
	} else {
		c.NextUserID = ""
		c.NextDate = nil
	}
	c.UpdatedAt = s.now()

	if err := s.store.UpdateChore(ctx, c); err != nil {
		return fmt.Errorf("update chore: %w", err)
	}
	if prev != c.NextUserID {
		s.metrics.AssigneeChanged()
		s.logger.Debug("assignee changed", "chore_id", c.ID, "from", prev, "to", c.NextUserID)
	}
	return nil
}

// CarryOverdue moves every chore whose next date has passed to today and
// returns how many were moved.
func (s *Service) CarryOverdue(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.Today()
	chores, err := s.store.ListOverdueChores(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list overdue chores: %w", err)
	}
	for _, c := range chores {
		if err := s.refreshLocked(ctx, c); err != nil {
			return 0, fmt.Errorf("carry %s: %w", c.ID, err)
		}
	}
	if len(chores) > 0 {
		s.metrics.OverdueCarried(len(chores))
		s.logger.Info("overdue chores carried", "count", len(chores), "today", today.Format(model.DateFormat))
	}
	return len(chores), nil
}

func isAvailable(p *model.Participant) bool { return p.Available }

// ledgerOf builds an engine ledger and weight table from the participants
// that pass keep.
func ledgerOf(parts []*model.Participant, keep func(*model.Participant) bool) (cfs.Ledger, cfs.Weights) {
	records := make([]cfs.Record, 0, len(parts))
	weights := make(cfs.Weights, len(parts))
	for _, p := range parts {
		if !keep(p) {
			continue
		}
		records = append(records, cfs.Record{ID: p.UserID, VWork: p.VWork})
		weights[p.UserID] = p.Weight
	}
	return cfs.NewLedger(records), weights
}
