package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/mission/internal/idgen"
	"github.com/viant/mission/logging"
	"github.com/viant/mission/model/document"
	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/service/approval"
	"github.com/viant/mission/service/dao"
	"github.com/viant/mission/service/messaging"
	"github.com/viant/mission/service/repository"
	"github.com/viant/mission/service/rule"
	"github.com/viant/mission/tracing"
)

// Service gates task content through client rules and human review
type Service struct {
	repo   repository.Service
	events messaging.Queue[approval.Event]
	logger *logging.Logger
	newID  func() string
}

var _ approval.Service = (*Service)(nil)

// New creates gateway backed by repo
func New(repo repository.Service, opts ...Option) *Service {
	ret := &Service{
		repo:   repo,
		logger: logging.Nop(),
		newID:  func() string { return idgen.Prefixed("req") },
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Submit creates a request for task content, evaluates client rules and
// persists the verdict.
func (s *Service) Submit(ctx context.Context, task *mission.Task, content document.Document) (request *approval.Request, err error) {
	if task == nil {
		return nil, fmt.Errorf("task was nil")
	}
	ctx, span := tracing.StartSpan(ctx, "approval.submit", tracing.KindInternal)
	span.WithAttributes(map[string]string{
		tracing.AttrMissionID: task.MissionID,
		tracing.AttrTaskID:    task.ID,
		tracing.AttrAgentType: task.AgentType,
	})
	defer func() { tracing.EndSpan(span, err) }()

	request = approval.NewRequest(s.newID(), task, content)
	rules, err := s.repo.ListRules(ctx, request.ClientID, request.AgentType)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules for %v: %w", request.ClientID, err)
	}
	verdict := rule.Evaluate(request, rules)
	logger := s.logger.WithMission(task.MissionID).WithTask(task.ID)
	for i, ruleID := range verdict.Malformed {
		logger.Warn("skipped malformed rule", "rule_id", ruleID, "error", verdict.Errors[i])
	}
	switch verdict.Kind {
	case rule.AutoApproved:
		request.AutoApprove(verdict.RuleID)
	case rule.Rejected:
		request.AutoReject(verdict.RuleID, verdict.Reason)
	default:
		request.RuleID = verdict.RuleID
	}
	if err = s.repo.SaveApprovalRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to save approval request %v: %w", request.ID, err)
	}
	span.WithAttributes(map[string]string{tracing.AttrRequestID: request.ID, "approval.status": string(request.Status)})
	logger.Info("approval request submitted", "request_id", request.ID, "status", request.Status, "rule_id", request.RuleID)
	s.publish(ctx, approval.TopicRequestCreated, request)
	if request.Status.IsTerminal() {
		s.publish(ctx, approval.TopicRequestDecided, request)
	}
	return request, nil
}

// Resolve records a reviewer decision; resolved requests are left unchanged
func (s *Service) Resolve(ctx context.Context, id string, decision *approval.Decision) (*approval.Request, error) {
	request, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = request.Apply(decision); err != nil {
		return nil, err
	}
	if err = s.repo.SaveApprovalRequest(ctx, request); err != nil {
		if errors.Is(err, dao.ErrConcurrency) {
			return nil, fmt.Errorf("request %v was modified concurrently: %w", id, err)
		}
		return nil, err
	}
	s.logger.WithMission(request.MissionID).WithTask(request.TaskID).Info("approval request resolved",
		"request_id", request.ID, "verdict", decision.Verdict, "status", request.Status)
	if request.Status.IsTerminal() {
		s.publish(ctx, approval.TopicRequestDecided, request)
	}
	return request, nil
}

// Load returns request by id
func (s *Service) Load(ctx context.Context, id string) (*approval.Request, error) {
	request, err := s.repo.LoadApprovalRequest(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", approval.ErrNotFound, id)
		}
		return nil, err
	}
	return request, nil
}

// ListPending returns requests waiting for a reviewer
func (s *Service) ListPending(ctx context.Context) ([]*approval.Request, error) {
	return s.repo.ListApprovalRequests(ctx, "", approval.StatusPending, approval.StatusEditing)
}

// Queue returns event queue
func (s *Service) Queue() messaging.Queue[approval.Event] {
	return s.events
}

// publish never blocks on a bounded queue: a dropped decision is still picked
// up when the scheduler reconciles the request.
func (s *Service) publish(ctx context.Context, topic string, request *approval.Request) {
	if s.events == nil {
		return
	}
	event := &approval.Event{Topic: topic, Request: request.Clone()}
	var err error
	if offerer, ok := s.events.(messaging.Offerer[approval.Event]); ok {
		err = offerer.Offer(event)
	} else {
		err = s.events.Publish(ctx, event)
	}
	if err != nil {
		s.logger.Warn("approval event dropped", "topic", topic, "request_id", request.ID, "error", err.Error())
	}
}
