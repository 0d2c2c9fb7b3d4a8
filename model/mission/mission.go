package mission

import (
	"time"

	"github.com/viant/mission/internal/clock"
	"github.com/viant/mission/model/document"
	"github.com/viant/mission/policy"
)

// Mission is a client-submitted unit of work decomposed into tasks.
type Mission struct {
	ID          string            `json:"id" yaml:"id"`
	Goal        string            `json:"goal" yaml:"goal"`
	ClientID    string            `json:"clientId" yaml:"clientId"`
	Status      Status            `json:"status" yaml:"status"`
	Priority    Priority          `json:"priority" yaml:"priority"`
	Policy      *policy.Policy    `json:"policy,omitempty" yaml:"policy,omitempty"`
	Results     document.Document `json:"results,omitempty" yaml:"results,omitempty"`
	Reason      string            `json:"reason,omitempty" yaml:"reason,omitempty"`
	CreatedAt   time.Time         `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt" yaml:"updatedAt"`
	CompletedAt *time.Time        `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	Version     int               `json:"version" yaml:"version"`
	// Tasks are persisted as separate records and joined on load.
	Tasks []*Task `json:"-" yaml:"-"`
}

// New creates a pending mission.
func New(id, clientID, goal string, priority Priority, tasks ...*Task) *Mission {
	now := clock.Now()
	return &Mission{
		ID:        id,
		ClientID:  clientID,
		Goal:      goal,
		Priority:  priority,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Tasks:     tasks,
	}
}

// LookupTask returns task by id or nil.
func (m *Mission) LookupTask(taskID string) *Task {
	for _, task := range m.Tasks {
		if task.ID == taskID {
			return task
		}
	}
	return nil
}

// SetStatus updates status and stamps timestamps.
func (m *Mission) SetStatus(status Status) {
	now := clock.Now()
	m.Status = status
	m.UpdatedAt = now
	if status.IsTerminal() && m.CompletedAt == nil {
		m.CompletedAt = &now
	}
}

// GetVersion returns record version used for optimistic concurrency.
func (m *Mission) GetVersion() int { return m.Version }

// SetVersion sets record version.
func (m *Mission) SetVersion(version int) { m.Version = version }

// Clone creates a deep copy of the mission including its tasks.
func (m *Mission) Clone() *Mission {
	if m == nil {
		return nil
	}
	clone := *m
	clone.Policy = m.Policy.Clone()
	clone.Results = m.Results.Clone()
	if m.CompletedAt != nil {
		completed := *m.CompletedAt
		clone.CompletedAt = &completed
	}
	if m.Tasks != nil {
		clone.Tasks = make([]*Task, len(m.Tasks))
		for i, task := range m.Tasks {
			clone.Tasks[i] = task.Clone()
		}
	}
	return &clone
}
