package cfs

import (
	"errors"
	"fmt"
	"math"
)

// DefaultHorizon is the projection cutoff in days used when none is given.
const DefaultHorizon = 90

// MaxEntries bounds the number of turns a single projection may produce.
const MaxEntries = 100_000

// Entry is one projected turn: a participant and its offset in days from the
// caller's reference day.
type Entry struct {
	ID     string  `json:"id"`
	Offset float64 `json:"offset"`
}

// ProjectOptions configures Project.
type ProjectOptions struct {
	Interval      int     // days between turns; must be positive
	InitialOffset float64 // days from the reference day to the first turn
	LastBy        string  // previous assignee, "" if none
	Horizon       float64 // last offset that may be scheduled; 0 means DefaultHorizon
}

func (o ProjectOptions) horizon() float64 {
	if o.Horizon == 0 {
		return DefaultHorizon
	}
	return o.Horizon
}

// Validate returns an error describing why the options cannot produce a
// schedule. Project treats a non-positive interval and non-finite values as
// a soft miss, and reports ErrTooManyEntries itself.
func (o ProjectOptions) Validate() error {
	var errs []error
	if o.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %d", o.Interval))
	}
	if !finite(o.Horizon) || o.Horizon < 0 {
		errs = append(errs, fmt.Errorf("horizon must be a finite non-negative number, got %g", o.Horizon))
	}
	if !finite(o.InitialOffset) || o.InitialOffset < 0 {
		errs = append(errs, fmt.Errorf("initial offset must be a finite non-negative number, got %g", o.InitialOffset))
	}
	if len(errs) == 0 {
		if n := entryCount(o.InitialOffset, o.horizon(), o.Interval); n > MaxEntries {
			errs = append(errs, fmt.Errorf("%w: %g turns requested, limit %d", ErrTooManyEntries, n, MaxEntries))
		}
	}
	return errors.Join(errs...)
}

// Complete applies one finished turn by id: its record is removed, its
// weight is added to VWork and it is reinserted with the Insert rule.
// Both a missing record and a missing weight are reported as ErrNotFound.
func Complete(l Ledger, id string, w Weights) (Ledger, error) {
	rest, rec, err := l.Remove(id)
	if err != nil {
		return l, err
	}
	delta, err := w.Of(id)
	if err != nil {
		return l, err
	}
	rec.VWork += delta
	return rest.Insert(rec), nil
}

// Project simulates successive turns starting InitialOffset days from the
// reference day and every Interval days after that, up to and including
// Horizon.
//
// The boolean is false, with a nil schedule, when the ledger or weight
// table is empty, Interval is not positive, or the offset or horizon is not
// finite. An error means the ledger and weights disagree about who exists,
// or the schedule would be longer than MaxEntries.
func Project(l Ledger, w Weights, opts ProjectOptions) ([]Entry, bool, error) {
	horizon := opts.horizon()
	if len(l) == 0 || len(w) == 0 || opts.Interval <= 0 || !finite(horizon) || !finite(opts.InitialOffset) {
		return nil, false, nil
	}
	n := entryCount(opts.InitialOffset, horizon, opts.Interval)
	if n > MaxEntries {
		return nil, false, fmt.Errorf("project %g turns: %w", n, ErrTooManyEntries)
	}

	working := l.Clone()
	lastBy := opts.LastBy
	schedule := make([]Entry, 0, int(n))

	// Offsets come from the turn index; summing them stalls past 2^53.
	for k := 0; k < MaxEntries; k++ {
		elapsed := opts.InitialOffset + float64(k)*float64(opts.Interval)
		if elapsed > horizon {
			break
		}
		chosen, ok := working.Next(lastBy)
		if !ok {
			// Only reachable when every record repeats lastBy.
			return nil, false, fmt.Errorf("project at offset %g: no participant other than %q: %w", elapsed, lastBy, ErrNotFound)
		}
		schedule = append(schedule, Entry{ID: chosen, Offset: elapsed})

		var err error
		working, err = Complete(working, chosen, w)
		if err != nil {
			return nil, false, fmt.Errorf("project at offset %g: %w", elapsed, err)
		}
		lastBy = chosen
	}
	return schedule, true, nil
}

// entryCount is the number of offsets in [offset, horizon] spaced interval
// apart, as a float so that it cannot overflow.
func entryCount(offset, horizon float64, interval int) float64 {
	if offset > horizon {
		return 0
	}
	return math.Floor((horizon-offset)/float64(interval)) + 1
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
