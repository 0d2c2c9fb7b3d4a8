package scheduler

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/viant/mission/internal/clock"
	"github.com/viant/mission/model/document"
	"github.com/viant/mission/model/graph"
	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/progress"
	"github.com/viant/mission/service/approval"
	"github.com/viant/mission/service/dao"
	"github.com/viant/mission/service/executor"
	"github.com/viant/mission/tracing"
)

// Tick advances the mission once: it applies resolved reviews, propagates
// failures, dispatches the ready frontier and waits for the dispatched tasks.
// A tick losing a version race is retried up to Config.TickRetries times.
func (s *Service) Tick(ctx context.Context, missionID string) error {
	mc := s.Context(missionID)
	mc.tick.Lock()
	defer mc.tick.Unlock()
	return s.tickWithRetry(ctx, mc)
}

func (s *Service) tickWithRetry(ctx context.Context, mc *Context) error {
	var err error
	for i := 0; i <= s.config.TickRetries; i++ {
		if err = s.tick(ctx, mc); !errors.Is(err, dao.ErrConcurrency) {
			return err
		}
		s.logger.WithMission(mc.MissionID).Debug("tick conflict", "retry", i+1)
	}
	return err
}

func (s *Service) tick(ctx context.Context, mc *Context) (err error) {
	ctx, span := tracing.StartSpan(ctx, "scheduler.tick", tracing.KindInternal)
	span.WithAttributes(map[string]string{tracing.AttrMissionID: mc.MissionID})
	defer func() { tracing.EndSpan(span, err) }()

	aMission, g, err := s.load(ctx, mc.MissionID)
	if err != nil {
		return err
	}
	if aMission.Status.IsTerminal() {
		s.release(mc.MissionID)
		return nil
	}
	if err = s.reconcile(ctx, aMission); err != nil {
		return err
	}
	if err = s.settle(ctx, mc, aMission, g); err != nil || aMission.Status.IsTerminal() {
		return err
	}
	dispatched, err := s.dispatch(ctx, mc, aMission, g)
	if err != nil || len(dispatched) == 0 {
		return err
	}
	span.AddEvent("dispatched", map[string]string{"tasks": taskIDs(dispatched)})
	s.execute(ctx, mc, aMission, dispatched)

	if aMission, g, err = s.load(ctx, mc.MissionID); err != nil {
		return err
	}
	if aMission.Status.IsTerminal() {
		s.release(mc.MissionID)
		return nil
	}
	return s.settle(ctx, mc, aMission, g)
}

func (s *Service) load(ctx context.Context, missionID string) (*mission.Mission, *graph.Graph, error) {
	aMission, err := s.repo.LoadMission(ctx, missionID)
	if err != nil {
		return nil, nil, err
	}
	g, err := graph.Build(aMission.ID, aMission.Tasks)
	if err != nil {
		return nil, nil, err
	}
	return aMission, g, nil
}

// reconcile applies decisions of resolved review requests
func (s *Service) reconcile(ctx context.Context, aMission *mission.Mission) error {
	if s.gateway == nil {
		return nil
	}
	for _, task := range aMission.Tasks {
		if !task.AwaitingReview() {
			continue
		}
		request, err := s.gateway.Load(ctx, task.ApprovalID)
		if err != nil {
			if errors.Is(err, approval.ErrNotFound) {
				s.logger.WithMission(aMission.ID).WithTask(task.ID).Warn("review request not found", "request_id", task.ApprovalID)
				continue
			}
			return err
		}
		if !request.Status.IsTerminal() {
			continue
		}
		applyVerdict(task, request)
		if err = s.repo.SaveTask(ctx, task); err != nil {
			return err
		}
		s.logger.WithMission(aMission.ID).WithTask(task.ID).Info("review applied", "request_id", request.ID, "status", task.Status)
	}
	return nil
}

// settle propagates failures and persists the status derived from tasks
func (s *Service) settle(ctx context.Context, mc *Context, aMission *mission.Mission, g *graph.Graph) error {
	failFast := failFast(aMission)
	failed := false
	for _, task := range g.Tasks() {
		if task.Status != mission.TaskFailed {
			continue
		}
		failed = true
		for _, id := range g.Downstream(task.ID) {
			dependent := g.Task(id)
			if dependent.Status.IsTerminal() || dependent.Status == mission.TaskInProgress {
				continue
			}
			dependent.Fail(mission.ReasonUpstreamFailure)
			if err := s.repo.SaveTask(ctx, dependent); err != nil {
				return err
			}
		}
	}
	if failed && failFast {
		for _, task := range g.Tasks() {
			if task.Status.IsTerminal() || task.Executing() {
				continue
			}
			task.Cancel(mission.ReasonMissionFailed)
			if err := s.repo.SaveTask(ctx, task); err != nil {
				return err
			}
		}
	}
	mc.Tracker.Recount(aMission.Tasks)

	status := g.Status(failFast)
	if status == mission.StatusPending && aMission.Status != mission.StatusPending {
		status = aMission.Status
	}
	if status == aMission.Status {
		return nil
	}
	aMission.SetStatus(status)
	if status == mission.StatusFailed {
		aMission.Reason = failureReason(g)
	}
	aMission.Results = results(mc, aMission)
	if err := s.repo.SaveMission(ctx, aMission); err != nil {
		return err
	}
	logger := s.logger.WithMission(aMission.ID)
	if status.IsTerminal() {
		logger.Info("mission finished", "status", status, "reason", aMission.Reason)
		s.release(aMission.ID)
		return nil
	}
	logger.Debug("mission status changed", "status", status)
	return nil
}

// dispatch marks due frontier tasks InProgress. A task whose version-checked
// save fails was claimed or changed elsewhere and is skipped.
func (s *Service) dispatch(ctx context.Context, mc *Context, aMission *mission.Mission, g *graph.Graph) ([]*mission.Task, error) {
	now := clock.Now()
	var ready []*mission.Task
	for _, id := range g.Frontier(g.Completed()) {
		if ok, _ := mc.due(id, now); ok {
			ready = append(ready, g.Task(id))
		}
	}
	if len(ready) == 0 {
		return nil, nil
	}
	if aMission.Status == mission.StatusPending {
		aMission.SetStatus(mission.StatusInProgress)
		aMission.Results = results(mc, aMission)
		if err := s.repo.SaveMission(ctx, aMission); err != nil {
			return nil, err
		}
	}
	logger := s.logger.WithMission(aMission.ID)
	var dispatched []*mission.Task
	for _, task := range ready {
		task.Start()
		if err := s.repo.SaveTask(ctx, task); err != nil {
			if errors.Is(err, dao.ErrConcurrency) {
				logger.Debug("task claimed elsewhere", "task_id", task.ID)
				continue
			}
			if len(dispatched) == 0 {
				return nil, err
			}
			logger.Error("failed to dispatch task", "task_id", task.ID, "error", err.Error())
			break
		}
		dispatched = append(dispatched, task)
	}
	mc.Tracker.Recount(aMission.Tasks)
	return dispatched, nil
}

// execute runs dispatched tasks with at most Config.Workers in parallel
func (s *Service) execute(ctx context.Context, mc *Context, aMission *mission.Mission, tasks []*mission.Task) {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	unregister := context.AfterFunc(mc.done, stop)
	defer unregister()

	var group errgroup.Group
	group.SetLimit(s.config.Workers)
	for _, task := range tasks {
		task := task
		group.Go(func() error {
			s.run(ctx, runCtx, mc, aMission, task)
			return nil
		})
	}
	_ = group.Wait()
}

// run executes one attempt and records its outcome on the task
func (s *Service) run(ctx, runCtx context.Context, mc *Context, aMission *mission.Mission, task *mission.Task) {
	attempt := mc.nextAttempt(task.ID)
	mc.Tracker.Update(progress.Delta{Attempts: 1})
	outcome := s.executor.Execute(runCtx, task)
	outcome.Attempt = attempt
	logger := s.logger.WithMission(task.MissionID).WithTask(task.ID)
	if mc.Cancelled() {
		mc.discard(outcome)
		logger.Info("outcome discarded, mission cancelled", "attempt", attempt)
		return
	}
	switch {
	case outcome.Success():
		if !s.requiresApproval(aMission, task) {
			task.Complete(outcome.Output)
			break
		}
		request, err := s.gateway.Submit(runCtx, task, outcome.Output)
		if err != nil {
			logger.Warn("failed to submit content for approval", "error", err.Error())
			s.retryOrFail(mc, task, attempt, err.Error())
			break
		}
		applyVerdict(task, request)
	case errors.Is(outcome.Err, executor.ErrCancelled):
		task.Retry(outcome.Reason)
	default:
		s.retryOrFail(mc, task, attempt, outcome.Reason)
	}
	if err := s.repo.SaveTask(context.WithoutCancel(ctx), task); err != nil {
		if errors.Is(err, dao.ErrConcurrency) {
			mc.discard(outcome)
			logger.Warn("outcome discarded, task changed concurrently", "attempt", attempt)
			return
		}
		logger.Error("failed to save task", "error", err.Error())
		return
	}
	logger.Info("task attempt finished", "attempt", attempt, "status", task.Status, "reason", task.Reason)
}

func (s *Service) retryOrFail(mc *Context, task *mission.Task, attempts int, reason string) {
	if retry, delay := s.executor.ShouldRetry(attempts); retry {
		task.Retry(reason)
		mc.deferUntil(task.ID, clock.Now().Add(delay))
		mc.Tracker.Update(progress.Delta{Retries: 1})
		return
	}
	task.Fail(reason)
}

// applyVerdict completes or fails a task according to its review request;
// undecided requests keep the task awaiting review.
func applyVerdict(task *mission.Task, request *approval.Request) {
	task.ApprovalID = request.ID
	switch {
	case request.Status.IsApproved():
		task.Complete(request.FinalContent().Clone())
	case request.Status == approval.StatusRejected:
		task.Fail(mission.ReasonContentRejected)
	}
}

func failureReason(g *graph.Graph) string {
	for _, task := range g.Tasks() {
		if task.Status == mission.TaskFailed && task.Reason != mission.ReasonUpstreamFailure {
			return task.Reason
		}
	}
	return mission.ReasonMissionFailed
}

// results returns mission aggregate: progress counters and outputs of completed tasks
func results(mc *Context, aMission *mission.Mission) document.Document {
	outputs := map[string]interface{}{}
	for _, task := range aMission.Tasks {
		if task.Status == mission.TaskComplete {
			outputs[task.ID] = map[string]interface{}(task.Output.Clone())
		}
	}
	return document.Document{
		"progress": mc.Tracker.Map(),
		"outputs":  outputs,
	}
}

func taskIDs(tasks []*mission.Task) string {
	ret := ""
	for i, task := range tasks {
		if i > 0 {
			ret += ","
		}
		ret += task.ID
	}
	return ret
}
