package cfs

import "fmt"

// Weights maps a participant id to the virtual work added each time that
// participant completes a turn. Lookups are always by id.
type Weights map[string]float64

// Of returns the weight for id, or ErrNotFound. Missing weights are never
// defaulted.
func (w Weights) Of(id string) (float64, error) {
	d, ok := w[id]
	if !ok {
		return 0, fmt.Errorf("weight for %q: %w", id, ErrNotFound)
	}
	return d, nil
}
