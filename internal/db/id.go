package db

import "github.com/google/uuid"

// newID generates an opaque, prefixed identifier (e.g. "user_3f9...").
// Prefixing keeps ids self-describing in logs without a lookup.
func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
