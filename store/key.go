package store

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// NewKey returns a fresh child key. Keys generated by one process sort in
// creation order, so pushing records under NewKey keeps them chronological.
func NewKey() string {
	return strings.ToLower(ulid.Make().String())
}
