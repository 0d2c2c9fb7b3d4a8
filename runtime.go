package mission

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/mission/logging"
	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/progress"
	"github.com/viant/mission/service/approval"
	"github.com/viant/mission/service/approval/gateway"
	"github.com/viant/mission/service/definition"
	"github.com/viant/mission/service/repository"
	"github.com/viant/mission/service/rule"
	"github.com/viant/mission/service/scheduler"
)

const waitInterval = 50 * time.Millisecond

// Runtime represents a mission engine runtime
type Runtime struct {
	repo        repository.Service
	gateway     *gateway.Service
	scheduler   *scheduler.Service
	definitions *definition.Service
	logger      *logging.Logger
}

// Start polls active missions and consumes approval events in the background
func (r *Runtime) Start(ctx context.Context) error {
	go func() {
		if err := r.scheduler.Start(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("scheduler stopped", "error", err.Error())
		}
	}()
	return nil
}

// Shutdown stops background processing and waits for in-flight ticks
func (r *Runtime) Shutdown(ctx context.Context) error {
	return r.scheduler.Shutdown(ctx)
}

// LoadMission loads a mission definition, it is not submitted
func (r *Runtime) LoadMission(ctx context.Context, location string) (*mission.Mission, error) {
	return r.definitions.LoadMission(ctx, location)
}

// DecodeYAMLMission decodes a mission definition
func (r *Runtime) DecodeYAMLMission(data []byte) (*mission.Mission, error) {
	return definition.DecodeMission(data)
}

// Submit validates and persists a pending mission
func (r *Runtime) Submit(ctx context.Context, aMission *mission.Mission) (*mission.Mission, error) {
	return r.scheduler.Submit(ctx, aMission)
}

// Tick advances mission by one scheduling round
func (r *Runtime) Tick(ctx context.Context, missionID string) error {
	return r.scheduler.Tick(ctx, missionID)
}

// Run drives mission in the calling goroutine until it is terminal or only
// waits on human review
func (r *Runtime) Run(ctx context.Context, missionID string) (*mission.Mission, error) {
	return r.scheduler.Run(ctx, missionID)
}

// Cancel cancels mission, outcomes of tasks still executing are discarded
func (r *Runtime) Cancel(ctx context.Context, missionID string) error {
	return r.scheduler.Cancel(ctx, missionID)
}

// Mission returns mission with its tasks
func (r *Runtime) Mission(ctx context.Context, id string) (*mission.Mission, error) {
	return r.repo.LoadMission(ctx, id)
}

// Missions returns missions, optionally filtered by status
func (r *Runtime) Missions(ctx context.Context, statuses ...mission.Status) ([]*mission.Mission, error) {
	return r.repo.ListMissions(ctx, statuses...)
}

// Progress returns mission task counters
func (r *Runtime) Progress(missionID string) progress.Progress {
	return r.scheduler.Progress(missionID)
}

// WaitForMission polls mission until it is terminal or timeout elapses
func (r *Runtime) WaitForMission(ctx context.Context, id string, timeout time.Duration) (*mission.Mission, error) {
	deadline := time.Now().Add(timeout)
	for {
		aMission, err := r.repo.LoadMission(ctx, id)
		if err != nil {
			return nil, err
		}
		if aMission.Status.IsTerminal() {
			return aMission, nil
		}
		if time.Now().After(deadline) {
			return aMission, fmt.Errorf("timeout waiting for mission %q", id)
		}
		select {
		case <-ctx.Done():
			return aMission, ctx.Err()
		case <-time.After(waitInterval):
		}
	}
}

// Request returns approval request
func (r *Runtime) Request(ctx context.Context, id string) (*approval.Request, error) {
	return r.gateway.Load(ctx, id)
}

// PendingRequests returns requests waiting for a reviewer
func (r *Runtime) PendingRequests(ctx context.Context, filters ...approval.PendingFilter) ([]*approval.Request, error) {
	return approval.ListPending(ctx, r.gateway, filters...)
}

// Resolve records a reviewer decision and resumes the request mission
func (r *Runtime) Resolve(ctx context.Context, requestID string, decision *approval.Decision) (*approval.Request, error) {
	request, err := r.gateway.Resolve(ctx, requestID, decision)
	if err != nil {
		return nil, err
	}
	if err = r.scheduler.OnDecision(ctx, request); err != nil {
		return request, fmt.Errorf("failed to resume mission %v: %w", request.MissionID, err)
	}
	return request, nil
}

// Approvals returns the approval gateway
func (r *Runtime) Approvals() approval.Service {
	return r.gateway
}

// SaveRule creates or replaces an auto-approval rule
func (r *Runtime) SaveRule(ctx context.Context, aRule *rule.Rule) error {
	if err := aRule.Validate(); err != nil {
		return err
	}
	existing, err := r.repo.ListRules(ctx, aRule.ClientID, aRule.AgentType)
	if err != nil {
		return err
	}
	for _, candidate := range existing {
		if candidate.ID == aRule.ID {
			aRule.Version = candidate.Version
		}
	}
	return r.repo.SaveRule(ctx, aRule)
}

// LoadRules loads a rule set definition and saves every rule
func (r *Runtime) LoadRules(ctx context.Context, location string) ([]*rule.Rule, error) {
	rules, err := r.definitions.LoadRules(ctx, location)
	if err != nil {
		return nil, err
	}
	for _, aRule := range rules {
		if err = r.SaveRule(ctx, aRule); err != nil {
			return nil, fmt.Errorf("failed to save rule %v: %w", aRule.ID, err)
		}
	}
	return rules, nil
}

// Rules returns rules applicable to client and agent type in evaluation order
func (r *Runtime) Rules(ctx context.Context, clientID, agentType string) ([]*rule.Rule, error) {
	rules, err := r.repo.ListRules(ctx, clientID, agentType)
	if err != nil {
		return nil, err
	}
	return rule.Order(clientID, agentType, rules), nil
}
