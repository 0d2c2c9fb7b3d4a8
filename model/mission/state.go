package mission

import "strings"

// Status represents mission lifecycle state.
type Status string

// Mission states.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "inProgress"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusComplete, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// TaskStatus represents the state of a single task.
type TaskStatus string

// Task states. Cancelled is a terminal sub-state of Failed used when the
// owning mission is cancelled.
const (
	TaskQueued     TaskStatus = "queued"
	TaskInProgress TaskStatus = "inProgress"
	TaskComplete   TaskStatus = "complete"
	TaskFailed     TaskStatus = "failed"
	TaskRetrying   TaskStatus = "retrying"
	TaskCancelled  TaskStatus = "cancelled"
)

// IsTerminal reports whether the task reached a final state.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskComplete, TaskFailed, TaskCancelled:
		return true
	}
	return false
}

// IsFailed reports Failed or its Cancelled sub-state.
func (s TaskStatus) IsFailed() bool {
	return s == TaskFailed || s == TaskCancelled
}

// IsDispatchable reports whether a task in this state may enter the frontier.
func (s TaskStatus) IsDispatchable() bool {
	return s == TaskQueued || s == TaskRetrying
}

// Priority orders missions and tasks for dispatch.
type Priority string

// Priorities, most urgent last.
const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank returns dispatch rank: lower rank is dispatched first, so urgent work
// precedes low priority work.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityLow:
		return 3
	default:
		return 2
	}
}

// ParsePriority converts text to Priority, unknown values map to normal.
func ParsePriority(text string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(text))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	case PriorityUrgent:
		return PriorityUrgent
	}
	return PriorityNormal
}

// Failure reasons recorded on tasks.
const (
	ReasonUpstreamFailure  = "upstream-failure"
	ReasonContentRejected  = "content-rejected"
	ReasonTimeout          = "timeout"
	ReasonMissionCancelled = "mission-cancelled"
	ReasonMissionFailed    = "mission-failed"
)
