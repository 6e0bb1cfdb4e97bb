// Package tracker keeps chores, their participants and their fairness
// counters in the store and asks the cfs engine who goes next.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/me/chorewheel/internal/logging"
	"github.com/me/chorewheel/internal/metrics"
	"github.com/me/chorewheel/internal/store"
	"github.com/me/chorewheel/pkg/cfs"
	"github.com/me/chorewheel/pkg/model"
)

const (
	// DefaultMaxHorizon is the longest calendar, in days, served by default.
	DefaultMaxHorizon = 3650
	// DefaultSessionTTL is the default lifetime of a login token.
	DefaultSessionTTL = 30 * 24 * time.Hour
)

// Service implements the chore tracking operations on top of a Store.
type Service struct {
	store   store.Store
	clock   Clock
	metrics metrics.Collector
	horizon int
	logger  *slog.Logger

	maxHorizon   int
	sessionTTL   time.Duration
	passwordCost int

	// mu serialises writes so that every engine call sees a consistent
	// snapshot of a chore's participants.
	mu sync.Mutex
}

// Option configures optional Service dependencies.
type Option func(*Service)

// WithClock sets the clock used to decide the current day.
func WithClock(c Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m metrics.Collector) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithHorizon sets the default calendar length in days.
func WithHorizon(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.horizon = days
		}
	}
}

// WithMaxHorizon caps the calendar length a caller may ask for.
func WithMaxHorizon(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.maxHorizon = days
		}
	}
}

// WithSessionTTL sets how long a login token stays valid.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sessionTTL = d
		}
	}
}

// WithPasswordCost sets the bcrypt cost for new password hashes.
func WithPasswordCost(cost int) Option {
	return func(s *Service) {
		s.passwordCost = cost
	}
}

// New creates a tracker Service.
func New(st store.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:   st,
		clock:   SystemClock{},
		metrics: metrics.NewNop(),
		horizon: cfs.DefaultHorizon,
		logger:  logging.Component(logger, "tracker"),

		maxHorizon:   DefaultMaxHorizon,
		sessionTTL:   DefaultSessionTTL,
		passwordCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar day.
func (s *Service) Today() time.Time {
	return model.Day(s.clock.Now())
}

// Horizon returns the default calendar length in days.
func (s *Service) Horizon() int {
	return s.horizon
}

// MaxHorizon returns the longest calendar length a caller may request.
func (s *Service) MaxHorizon() int {
	return s.maxHorizon
}

// now is the clock's current instant in UTC, used for record timestamps.
func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

// --- lookups ---

func (s *Service) mustUser(ctx context.Context, id string) (*model.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, model.NewNotFoundError("user", id)
	}
	return u, nil
}

func (s *Service) mustSpace(ctx context.Context, id string) (*model.Space, error) {
	sp, err := s.store.GetSpace(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get space: %w", err)
	}
	if sp == nil {
		return nil, model.NewNotFoundError("space", id)
	}
	return sp, nil
}

func (s *Service) mustChore(ctx context.Context, id string) (*model.Chore, error) {
	c, err := s.store.GetChore(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	if c == nil {
		return nil, model.NewNotFoundError("chore", id)
	}
	return c, nil
}

func (s *Service) mustParticipant(ctx context.Context, choreID, userID string) (*model.Participant, error) {
	p, err := s.store.GetParticipant(ctx, choreID, userID)
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	if p == nil {
		return nil, model.NewNotFoundError("participant", choreID+"/"+userID)
	}
	return p, nil
}

// allChores pages through ListChores.
func (s *Service) allChores(ctx context.Context, opts model.ListOptions) ([]*model.Chore, error) {
	opts.Limit, opts.Offset = 100, 0
	var out []*model.Chore
	for {
		page, total, err := s.store.ListChores(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("list chores: %w", err)
		}
		out = append(out, page...)
		opts.Offset += len(page)
		if len(page) == 0 || opts.Offset >= total {
			return out, nil
		}
	}
}

// subtree returns the space and all of its descendants, parents first.
func (s *Service) subtree(ctx context.Context, root *model.Space) ([]*model.Space, error) {
	out := []*model.Space{root}
	for i := 0; i < len(out); i++ {
		children, err := s.store.ListChildSpaces(ctx, out[i].ID)
		if err != nil {
			return nil, fmt.Errorf("list child spaces: %w", err)
		}
		out = append(out, children...)
	}
	return out, nil
}

// RequireMember fails with a forbidden error unless userID belongs to the
// space.
func (s *Service) RequireMember(ctx context.Context, spaceID, userID string) error {
	if _, err := s.mustSpace(ctx, spaceID); err != nil {
		return err
	}
	m, err := s.store.GetSpaceMember(ctx, spaceID, userID)
	if err != nil {
		return fmt.Errorf("get member: %w", err)
	}
	if m == nil {
		return model.NewForbiddenError(fmt.Sprintf("not a member of space %s", spaceID))
	}
	return nil
}

// RequireParticipant fails with a forbidden error unless userID takes part
// in the chore.
func (s *Service) RequireParticipant(ctx context.Context, choreID, userID string) error {
	if _, err := s.mustChore(ctx, choreID); err != nil {
		return err
	}
	p, err := s.store.GetParticipant(ctx, choreID, userID)
	if err != nil {
		return fmt.Errorf("get participant: %w", err)
	}
	if p == nil {
		return model.NewForbiddenError(fmt.Sprintf("not a participant of chore %s", choreID))
	}
	return nil
}
