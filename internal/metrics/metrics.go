// Package metrics records chorewheel activity counters.
package metrics

// Collector receives events from the tracker, the rollover loop and the
// HTTP server.
type Collector interface {
	// ChoreCompleted counts one finished turn.
	ChoreCompleted()
	// AssigneeChanged counts a recomputation that picked a different next assignee.
	AssigneeChanged()
	// CalendarProjected records one projection and the number of entries it produced.
	CalendarProjected(entries int)
	// OverdueCarried records how many chores a rollover moved to today.
	OverdueCarried(n int)
	// HTTPRequest counts one served request.
	HTTPRequest(method string, status int)
}

// Nop is a Collector that discards everything.
type Nop struct{}

var _ Collector = Nop{}

// NewNop returns a no-op Collector.
func NewNop() Nop { return Nop{} }

func (Nop) ChoreCompleted()         {}
func (Nop) AssigneeChanged()        {}
func (Nop) CalendarProjected(int)   {}
func (Nop) OverdueCarried(int)      {}
func (Nop) HTTPRequest(string, int) {}
