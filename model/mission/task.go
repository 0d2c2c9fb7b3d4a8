package mission

import (
	"time"

	"github.com/viant/mission/internal/clock"
	"github.com/viant/mission/model/document"
)

// Task is one unit of agent-executed work within a mission.
type Task struct {
	ID          string            `json:"id" yaml:"id"`
	MissionID   string            `json:"missionId" yaml:"missionId"`
	ClientID    string            `json:"clientId,omitempty" yaml:"clientId,omitempty"`
	AgentType   string            `json:"agentType" yaml:"agentType"`
	TaskType    string            `json:"taskType" yaml:"taskType"`
	ContentType string            `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	Priority    Priority          `json:"priority,omitempty" yaml:"priority,omitempty"`
	Seq         int               `json:"seq" yaml:"seq"`
	Status      TaskStatus        `json:"status" yaml:"status"`
	DependsOn   []string          `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	Input       document.Document `json:"input,omitempty" yaml:"input,omitempty"`
	Output      document.Document `json:"output,omitempty" yaml:"output,omitempty"`
	Reason      string            `json:"reason,omitempty" yaml:"reason,omitempty"`
	ApprovalID  string            `json:"approvalId,omitempty" yaml:"approvalId,omitempty"`
	CreatedAt   time.Time         `json:"createdAt" yaml:"createdAt"`
	StartedAt   *time.Time        `json:"startedAt,omitempty" yaml:"startedAt,omitempty"`
	CompletedAt *time.Time        `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	Version     int               `json:"version" yaml:"version"`
}

// NewTask creates a queued task.
func NewTask(id, agentType, taskType string, input document.Document, dependsOn ...string) *Task {
	return &Task{
		ID:        id,
		AgentType: agentType,
		TaskType:  taskType,
		Status:    TaskQueued,
		Input:     input,
		DependsOn: dependsOn,
		CreatedAt: clock.Now(),
	}
}

// WithDependsOn adds a dependency to the task
func (t *Task) WithDependsOn(taskID string) *Task {
	t.DependsOn = append(t.DependsOn, taskID)
	return t
}

// WithContentType sets content type tag of produced output
func (t *Task) WithContentType(contentType string) *Task {
	t.ContentType = contentType
	return t
}

// Start marks the task as dispatched.
func (t *Task) Start() {
	t.StartedAt = clock.NowPtr()
	t.Status = TaskInProgress
	t.Reason = ""
}

// Complete marks the task as completed with output.
func (t *Task) Complete(output document.Document) {
	t.CompletedAt = clock.NowPtr()
	t.Output = output
	t.Status = TaskComplete
	t.Reason = ""
}

// Fail marks the task as permanently failed.
func (t *Task) Fail(reason string) {
	t.CompletedAt = clock.NowPtr()
	t.Reason = reason
	t.Status = TaskFailed
}

// Retry marks the task as waiting for another attempt.
func (t *Task) Retry(reason string) {
	t.Reason = reason
	t.Status = TaskRetrying
}

// Cancel marks the task as cancelled.
func (t *Task) Cancel(reason string) {
	t.CompletedAt = clock.NowPtr()
	t.Reason = reason
	t.Status = TaskCancelled
}

// AwaitingReview reports an in-progress task whose content waits for a
// human decision.
func (t *Task) AwaitingReview() bool {
	return t.Status == TaskInProgress && t.ApprovalID != ""
}

// Executing reports an in-progress task currently held by a worker.
func (t *Task) Executing() bool {
	return t.Status == TaskInProgress && t.ApprovalID == ""
}

// GetVersion returns record version used for optimistic concurrency.
func (t *Task) GetVersion() int { return t.Version }

// SetVersion sets record version.
func (t *Task) SetVersion(version int) { t.Version = version }

// Clone creates a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	clone := *t
	if t.DependsOn != nil {
		clone.DependsOn = append([]string(nil), t.DependsOn...)
	}
	clone.Input = t.Input.Clone()
	clone.Output = t.Output.Clone()
	if t.StartedAt != nil {
		started := *t.StartedAt
		clone.StartedAt = &started
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		clone.CompletedAt = &completed
	}
	return &clone
}
