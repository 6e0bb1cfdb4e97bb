package cfs

import "errors"

// ErrNotFound reports that a participant expected in a ledger or weight table
// is missing. It indicates mutually inconsistent input, not a soft miss.
var ErrNotFound = errors.New("participant not found")

// ErrTooManyEntries reports that a projection would exceed MaxEntries turns.
var ErrTooManyEntries = errors.New("projection exceeds entry limit")
