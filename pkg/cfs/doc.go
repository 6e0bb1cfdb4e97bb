// Package cfs implements the fair scheduling engine used to rotate chores.
//
// Every participant carries a virtual-work counter. Completing a turn adds the
// participant's weight to that counter, and the participant with the least
// virtual work goes next, skipping whoever did the previous turn when someone
// else is available. The scheme mirrors a completely-fair CPU scheduler with
// chores in place of time slices.
//
// The package is pure: every function takes an explicit snapshot and returns
// a new one. It performs no I/O, keeps no state between calls and never
// mutates the slices or maps it is given.
package cfs
