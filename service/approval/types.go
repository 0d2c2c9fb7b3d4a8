package approval

import (
	"fmt"
	"time"

	"github.com/viant/mission/internal/clock"
	"github.com/viant/mission/model/document"
	"github.com/viant/mission/model/mission"
)

// Status represents approval request state
type Status string

// Request states. Editing is a sub-state that returns to Pending or moves to Approved.
const (
	StatusPending      Status = "pending"
	StatusApproved     Status = "approved"
	StatusRejected     Status = "rejected"
	StatusEditing      Status = "editing"
	StatusAutoApproved Status = "autoApproved"
)

// IsTerminal reports whether no further decision is accepted
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusAutoApproved:
		return true
	}
	return false
}

// IsApproved reports Approved or AutoApproved
func (s Status) IsApproved() bool {
	return s == StatusApproved || s == StatusAutoApproved
}

// Event topics
const (
	TopicRequestCreated = "request.created"
	TopicRequestDecided = "request.decided"
)

// Event is published on the approval queue
type Event struct {
	Topic   string   `json:"topic"`
	Request *Request `json:"request"`
}

// Request represents agent content awaiting approval
type Request struct {
	ID              string            `json:"id"`
	MissionID       string            `json:"missionId"`
	TaskID          string            `json:"taskId"`
	ClientID        string            `json:"clientId"`
	AgentType       string            `json:"agentType"`
	TaskType        string            `json:"taskType"`
	ContentType     string            `json:"contentType,omitempty"`
	Priority        mission.Priority  `json:"priority,omitempty"`
	Content         document.Document `json:"content"`
	EditedContent   document.Document `json:"editedContent,omitempty"`
	Status          Status            `json:"status"`
	RuleID          string            `json:"ruleId,omitempty"`
	RejectionReason string            `json:"rejectionReason,omitempty"`
	Reviewer        string            `json:"reviewer,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	ReviewedAt      *time.Time        `json:"reviewedAt,omitempty"`
	ApprovedAt      *time.Time        `json:"approvedAt,omitempty"`
	RejectedAt      *time.Time        `json:"rejectedAt,omitempty"`
	Version         int               `json:"version"`
}

// NewRequest creates a pending request for task content
func NewRequest(id string, task *mission.Task, content document.Document) *Request {
	return &Request{
		ID:          id,
		MissionID:   task.MissionID,
		TaskID:      task.ID,
		ClientID:    task.ClientID,
		AgentType:   task.AgentType,
		TaskType:    task.TaskType,
		ContentType: task.ContentType,
		Priority:    task.Priority,
		Content:     content.Clone(),
		Status:      StatusPending,
		CreatedAt:   clock.Now(),
	}
}

// FinalContent returns edited content when present, original otherwise
func (r *Request) FinalContent() document.Document {
	if r.EditedContent != nil {
		return r.EditedContent
	}
	return r.Content
}

// Meta returns request metadata addressable by rule conditions
func (r *Request) Meta() document.Document {
	return document.Document{
		"id":          r.ID,
		"missionId":   r.MissionID,
		"taskId":      r.TaskID,
		"clientId":    r.ClientID,
		"agentType":   r.AgentType,
		"taskType":    r.TaskType,
		"contentType": r.ContentType,
		"priority":    string(r.Priority),
	}
}

// AutoApprove stamps rule approval
func (r *Request) AutoApprove(ruleID string) {
	now := clock.Now()
	r.Status = StatusAutoApproved
	r.RuleID = ruleID
	r.ApprovedAt = &now
}

// AutoReject stamps rule rejection
func (r *Request) AutoReject(ruleID, reason string) {
	now := clock.Now()
	r.Status = StatusRejected
	r.RuleID = ruleID
	r.RejectionReason = reason
	r.RejectedAt = &now
}

// Apply transitions the request according to a reviewer decision:
// Pending -> Approved | Rejected | Editing, Editing -> Approved | Rejected |
// Pending. Terminal requests are left unchanged.
func (r *Request) Apply(decision *Decision) error {
	if r.Status.IsTerminal() {
		return fmt.Errorf("%w: %v is %v", ErrAlreadyResolved, r.ID, r.Status)
	}
	if decision == nil {
		return fmt.Errorf("%w: nil decision", ErrInvalidDecision)
	}
	now := clock.Now()
	switch decision.Verdict {
	case VerdictApprove:
		if decision.Edited != nil {
			r.EditedContent = decision.Edited.Clone()
		}
		r.Status = StatusApproved
		r.ApprovedAt = &now
	case VerdictReject:
		r.Status = StatusRejected
		r.RejectedAt = &now
		r.RejectionReason = decision.Reason
		if r.RejectionReason == "" {
			r.RejectionReason = "rejected by reviewer"
		}
	case VerdictEdit:
		if r.Status != StatusPending {
			return fmt.Errorf("%w: %v is already being edited", ErrInvalidDecision, r.ID)
		}
		if decision.Edited != nil {
			r.EditedContent = decision.Edited.Clone()
		}
		r.Status = StatusEditing
	case VerdictReturn:
		if r.Status != StatusEditing {
			return fmt.Errorf("%w: %v is not being edited", ErrInvalidDecision, r.ID)
		}
		r.Status = StatusPending
	default:
		return fmt.Errorf("%w: unsupported verdict %q", ErrInvalidDecision, decision.Verdict)
	}
	r.ReviewedAt = &now
	if decision.Reviewer != "" {
		r.Reviewer = decision.Reviewer
	}
	return nil
}

// GetVersion returns record version used for optimistic concurrency
func (r *Request) GetVersion() int { return r.Version }

// SetVersion sets record version
func (r *Request) SetVersion(version int) { r.Version = version }

// Clone creates a deep copy
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Content = r.Content.Clone()
	clone.EditedContent = r.EditedContent.Clone()
	clone.ReviewedAt = cloneTime(r.ReviewedAt)
	clone.ApprovedAt = cloneTime(r.ApprovedAt)
	clone.RejectedAt = cloneTime(r.RejectedAt)
	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	ret := *t
	return &ret
}

// Verdicts a reviewer can record
const (
	VerdictApprove = "approve"
	VerdictReject  = "reject"
	VerdictEdit    = "edit"
	VerdictReturn  = "return"
)

// Decision represents a human reviewer decision
type Decision struct {
	Verdict  string            `json:"verdict"`
	Reason   string            `json:"reason,omitempty"`
	Edited   document.Document `json:"edited,omitempty"`
	Reviewer string            `json:"reviewer,omitempty"`
}

// Approve creates an approve decision, edited is optional
func Approve(edited document.Document) *Decision {
	return &Decision{Verdict: VerdictApprove, Edited: edited}
}

// Reject creates a reject decision
func Reject(reason string) *Decision {
	return &Decision{Verdict: VerdictReject, Reason: reason}
}

// Edit creates an edit decision
func Edit(edited document.Document) *Decision {
	return &Decision{Verdict: VerdictEdit, Edited: edited}
}
