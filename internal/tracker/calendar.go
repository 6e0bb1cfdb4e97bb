package tracker

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/me/chorewheel/pkg/cfs"
	"github.com/me/chorewheel/pkg/model"
)

// ChoreCalendar projects the upcoming turns of a chore for the next days
// days (the service horizon when days <= 0), counted from today.
func (s *Service) ChoreCalendar(ctx context.Context, choreID string, days int) ([]model.Occurrence, error) {
	if err := s.checkDays(days); err != nil {
		return nil, err
	}
	c, err := s.mustChore(ctx, choreID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, c, days)
}

// UserCalendar merges the calendars of every chore the user takes part in,
// ordered by date and then chore name. With mine set only the user's own
// turns are kept.
func (s *Service) UserCalendar(ctx context.Context, userID string, days int, mine bool) ([]model.Occurrence, error) {
	if err := s.checkDays(days); err != nil {
		return nil, err
	}
	if _, err := s.mustUser(ctx, userID); err != nil {
		return nil, err
	}
	parts, err := s.store.ListParticipantsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}

	var out []model.Occurrence
	for _, p := range parts {
		c, err := s.mustChore(ctx, p.ChoreID)
		if err != nil {
			return nil, err
		}
		occ, err := s.project(ctx, c, days)
		if err != nil {
			return nil, err
		}
		for _, o := range occ {
			if mine && o.UserID != userID {
				continue
			}
			out = append(out, o)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.ChoreName != b.ChoreName {
			return a.ChoreName < b.ChoreName
		}
		return a.ChoreID < b.ChoreID
	})
	return out, nil
}

// checkDays rejects calendar lengths beyond the service maximum.
func (s *Service) checkDays(days int) error {
	if days > s.maxHorizon {
		return model.NewValidationError("Invalid calendar request",
			model.FieldError{Field: "days", Message: fmt.Sprintf("must be at most %d", s.maxHorizon)})
	}
	return nil
}

func (s *Service) project(ctx context.Context, c *model.Chore, days int) ([]model.Occurrence, error) {
	if days <= 0 {
		days = s.horizon
	}
	out := []model.Occurrence{}
	if c.NextDate == nil {
		return out, nil
	}

	parts, err := s.store.ListParticipants(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	ledger, weights := ledgerOf(parts, isAvailable)

	today := s.Today()
	offset := model.DaysBetween(today, *c.NextDate)
	if offset < 0 {
		offset = 0
	}
	opts := cfs.ProjectOptions{
		Interval:      c.Interval,
		InitialOffset: float64(offset),
		LastBy:        c.LastUserID,
		Horizon:       float64(days),
	}
	if err := opts.Validate(); err != nil {
		return nil, model.NewValidationError("Invalid calendar request",
			model.FieldError{Field: "days", Message: err.Error()})
	}
	entries, ok, err := cfs.Project(ledger, weights, opts)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", c.ID, err)
	}
	if !ok {
		return out, nil
	}

	for _, e := range entries {
		out = append(out, model.Occurrence{
			ChoreID:   c.ID,
			ChoreName: c.Name,
			UserID:    e.ID,
			Date:      model.AddDays(today, int(math.Round(e.Offset))),
			Offset:    e.Offset,
		})
	}
	s.metrics.CalendarProjected(len(out))
	return out, nil
}
