package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/me/chorewheel/internal/logging"
)

// Carrier moves overdue chores to the current day.
type Carrier interface {
	CarryOverdue(ctx context.Context) (int, error)
}

// SessionPruner drops expired login sessions. A Carrier that also
// implements it is pruned on every tick.
type SessionPruner interface {
	PruneSessions(ctx context.Context) (int, error)
}

// Config holds scheduler configuration.
type Config struct {
	Spec     string         // cron expression, standard five fields or a descriptor
	Location *time.Location // zone the cron spec is evaluated in
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Spec: "@daily", Location: time.UTC}
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Loop implements the Scheduler interface on top of a cron runner.
type Loop struct {
	carrier Carrier
	config  Config
	logger  *slog.Logger

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}

	mu      sync.Mutex
	lastRun time.Time
	carried int
}

// NewLoop creates a new scheduler loop. The cron spec is checked here so that a
// bad configuration fails at startup.
func NewLoop(c Carrier, cfg Config, logger *slog.Logger) (*Loop, error) {
	if cfg.Spec == "" {
		cfg.Spec = DefaultConfig().Spec
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if _, err := parser.Parse(cfg.Spec); err != nil {
		return nil, fmt.Errorf("parse rollover spec %q: %w", cfg.Spec, err)
	}
	return &Loop{
		carrier: c,
		config:  cfg,
		logger:  logging.Component(logger, "scheduler"),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start runs one tick immediately and then one per cron activation. Blocks
// until ctx is cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return errors.New("scheduler already started")
	}
	defer close(l.doneCh)

	select {
	case <-l.stopCh:
		return nil
	default:
	}

	c := cron.New(cron.WithParser(parser), cron.WithLocation(l.config.Location))
	if _, err := c.AddFunc(l.config.Spec, func() { l.runTick(ctx) }); err != nil {
		return fmt.Errorf("schedule rollover: %w", err)
	}

	l.runTick(ctx)
	c.Start()
	l.logger.Info("scheduler started", "spec", l.config.Spec, "tz", l.config.Location.String())

	var err error
	select {
	case <-ctx.Done():
		l.logger.Info("scheduler stopping (context cancelled)")
		err = ctx.Err()
	case <-l.stopCh:
		l.logger.Info("scheduler stopping (stop called)")
	}
	<-c.Stop().Done()
	return err
}

// Stop gracefully shuts down the scheduler and waits for a running tick to
// finish. Stopping a loop that was never started returns at once and keeps
// it from starting later.
func (l *Loop) Stop() error {
	l.stopOnce.Do(func() { close(l.stopCh) })
	if !l.started.Load() {
		return nil
	}
	<-l.doneCh
	return nil
}

// Tick carries overdue chores over to today.
func (l *Loop) Tick(ctx context.Context) error {
	n, err := l.carrier.CarryOverdue(ctx)
	if err != nil {
		return fmt.Errorf("carry overdue: %w", err)
	}
	l.mu.Lock()
	l.lastRun = time.Now().UTC()
	l.carried += n
	l.mu.Unlock()

	pruned := 0
	if p, ok := l.carrier.(SessionPruner); ok {
		if pruned, err = p.PruneSessions(ctx); err != nil {
			return fmt.Errorf("prune sessions: %w", err)
		}
	}
	l.logger.Debug("tick done", "carried", n, "sessions_pruned", pruned)
	return nil
}

// Stats returns the time of the last successful tick and the total number
// of chores carried since the loop was created.
func (l *Loop) Stats() (time.Time, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastRun, l.carried
}

func (l *Loop) runTick(ctx context.Context) {
	if err := l.Tick(ctx); err != nil {
		l.logger.Error("tick error", "error", err)
	}
}
