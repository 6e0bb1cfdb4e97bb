package cfs

import (
	"fmt"
	"sort"
)

// Record pairs a participant with its accumulated virtual work.
type Record struct {
	ID    string  `json:"id"`
	VWork float64 `json:"vwork"`
}

// Ledger is a sequence of records sorted ascending by VWork.
//
// The empty string is not a valid participant id; it is reserved to mean
// "no previous assignee" in Next and ProjectOptions.
type Ledger []Record

// NewLedger copies records and sorts the copy by VWork. Records with equal
// virtual work keep their input order.
func NewLedger(records []Record) Ledger {
	l := make(Ledger, len(records))
	copy(l, records)
	sort.SliceStable(l, func(i, j int) bool { return l[i].VWork < l[j].VWork })
	return l
}

// Clone returns an independent copy of l.
func (l Ledger) Clone() Ledger {
	if l == nil {
		return nil
	}
	out := make(Ledger, len(l))
	copy(out, l)
	return out
}

// Len returns the number of records.
func (l Ledger) Len() int { return len(l) }

// IsSorted reports whether VWork is non-decreasing across adjacent records.
func (l Ledger) IsSorted() bool {
	for i := 1; i < len(l); i++ {
		if l[i].VWork < l[i-1].VWork {
			return false
		}
	}
	return true
}

// Index returns the position of the first record with the given id.
// A miss is reported through the boolean, never as an error.
func (l Ledger) Index(id string) (int, bool) {
	for i := range l {
		if l[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// Remove returns a copy of l without the first record matching id, along
// with that record. The remaining records keep their relative order.
func (l Ledger) Remove(id string) (Ledger, Record, error) {
	i, ok := l.Index(id)
	if !ok {
		return l, Record{}, fmt.Errorf("remove %q: %w", id, ErrNotFound)
	}
	out := make(Ledger, 0, len(l)-1)
	out = append(out, l[:i]...)
	out = append(out, l[i+1:]...)
	return out, l[i], nil
}

// Insert returns a copy of l with r placed immediately before the first
// record whose VWork is strictly greater than r.VWork. When no such record
// exists r is appended. A record entering a run of equal values therefore
// lands behind that run.
func (l Ledger) Insert(r Record) Ledger {
	i := insertIndex(l, r.VWork)
	out := make(Ledger, 0, len(l)+1)
	out = append(out, l[:i]...)
	out = append(out, r)
	out = append(out, l[i:]...)
	return out
}

func insertIndex(l Ledger, vwork float64) int {
	for i := range l {
		if vwork < l[i].VWork {
			return i
		}
	}
	return len(l)
}

// Next picks the participant for the upcoming turn.
//
// An empty ledger yields no participant. A single participant is always
// returned, even if it did the last turn. Otherwise the least-vwork
// participant whose id differs from lastBy is chosen; pass "" as lastBy to
// allow back-to-back turns.
func (l Ledger) Next(lastBy string) (string, bool) {
	switch len(l) {
	case 0:
		return "", false
	case 1:
		return l[0].ID, true
	}
	for _, r := range l {
		if r.ID != lastBy {
			return r.ID, true
		}
	}
	return "", false
}
