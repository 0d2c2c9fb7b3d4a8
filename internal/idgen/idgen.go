package idgen

import "github.com/google/uuid"

// NewFunc generates identifiers for missions, tasks and approval requests.
// Override in tests to obtain stable ids.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier.
func New() string { return NewFunc() }

// Prefixed returns an identifier prefixed with kind, e.g. "mission-<uuid>".
func Prefixed(kind string) string {
	if kind == "" {
		return New()
	}
	return kind + "-" + New()
}
