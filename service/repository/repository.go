package repository

import (
	"context"

	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/service/approval"
	"github.com/viant/mission/service/rule"
)

// Service represents mission, approval request and rule persistence
type Service interface {
	// LoadMission returns mission with its tasks ordered by sequence
	LoadMission(ctx context.Context, id string) (*mission.Mission, error)
	// SaveMission saves mission record (tasks are saved with SaveTask)
	SaveMission(ctx context.Context, aMission *mission.Mission) error
	// ListMissions returns missions, optionally filtered by status
	ListMissions(ctx context.Context, statuses ...mission.Status) ([]*mission.Mission, error)
	// SaveTask saves a single task
	SaveTask(ctx context.Context, task *mission.Task) error

	// SaveApprovalRequest saves approval request
	SaveApprovalRequest(ctx context.Context, request *approval.Request) error
	// LoadApprovalRequest returns approval request by id
	LoadApprovalRequest(ctx context.Context, id string) (*approval.Request, error)
	// ListApprovalRequests returns mission requests (all missions when missionID is empty), optionally filtered by status
	ListApprovalRequests(ctx context.Context, missionID string, statuses ...approval.Status) ([]*approval.Request, error)

	// ListRules returns rules of a client applicable to agent type
	ListRules(ctx context.Context, clientID, agentType string) ([]*rule.Rule, error)
	// SaveRule saves rule
	SaveRule(ctx context.Context, aRule *rule.Rule) error
}

// Closer is implemented by repositories holding resources
type Closer interface {
	Close() error
}
