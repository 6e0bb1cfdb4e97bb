package model

import "github.com/google/uuid"

// Id prefixes by entity.
const (
	PrefixUser       = "usr_"
	PrefixSpace      = "spc_"
	PrefixChore      = "chr_"
	PrefixCompletion = "cmp_"
	PrefixRequest    = "mrq_"
)

// NewID returns a fresh identifier with the given prefix.
func NewID(prefix string) string {
	return prefix + uuid.New().String()
}
