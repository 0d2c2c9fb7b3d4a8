package approval

import "errors"

var (
	// ErrAlreadyResolved is returned when deciding a request that is already terminal
	ErrAlreadyResolved = errors.New("approval: already resolved")

	// ErrRuleMalformed marks a rule condition that cannot be evaluated; such
	// conditions never fire
	ErrRuleMalformed = errors.New("approval: rule malformed")

	// ErrNotFound is returned for unknown request ids
	ErrNotFound = errors.New("approval: request not found")

	// ErrInvalidDecision is returned when a decision is not allowed in the request state
	ErrInvalidDecision = errors.New("approval: invalid decision")
)
