package models

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// NewID generates a prefixed, lexicographically sortable identifier,
// e.g. NewID("ord") -> "ord_01H...".
func NewID(prefix string) string {
	return prefix + "_" + strings.ToLower(ulid.Make().String())
}
