package executor

import "errors"

var (
	// ErrTimeout is returned when an agent does not answer within the attempt deadline
	ErrTimeout = errors.New("executor: agent timeout")

	// ErrAgentFailure wraps errors returned (or panics raised) by an agent
	ErrAgentFailure = errors.New("executor: agent failure")

	// ErrCancelled is returned when the caller context is done before the agent answered
	ErrCancelled = errors.New("executor: cancelled")
)
