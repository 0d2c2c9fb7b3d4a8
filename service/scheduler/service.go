package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/viant/mission/internal/clock"
	"github.com/viant/mission/internal/idgen"
	"github.com/viant/mission/logging"
	"github.com/viant/mission/model/graph"
	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/progress"
	"github.com/viant/mission/service/approval"
	"github.com/viant/mission/service/dao"
	"github.com/viant/mission/service/executor"
	"github.com/viant/mission/service/messaging"
	"github.com/viant/mission/service/repository"
)

// ErrShutdown is returned when the scheduler was shut down
var ErrShutdown = errors.New("scheduler: shut down")

// Service schedules mission tasks
type Service struct {
	config     *Config
	repo       repository.Service
	executor   executor.Service
	gateway    approval.Service
	logger     *logging.Logger
	onProgress func(progress.Progress)

	mux      sync.Mutex
	contexts map[string]*Context
	stopped  bool

	shutdownCh chan struct{}
	shutdown   sync.Once
	wg         sync.WaitGroup
}

// New creates a scheduler
func New(repo repository.Service, exec executor.Service, opts ...Option) *Service {
	ret := &Service{
		config:     DefaultConfig(),
		repo:       repo,
		executor:   exec,
		logger:     logging.Nop(),
		contexts:   map[string]*Context{},
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Context returns scheduling context of a mission
func (s *Service) Context(missionID string) *Context {
	s.mux.Lock()
	defer s.mux.Unlock()
	ret, ok := s.contexts[missionID]
	if !ok {
		ret = newContext(missionID, s.onProgress)
		s.contexts[missionID] = ret
	}
	return ret
}

// lookup returns scheduling context of a mission without creating one
func (s *Service) lookup(missionID string) (*Context, bool) {
	s.mux.Lock()
	defer s.mux.Unlock()
	ret, ok := s.contexts[missionID]
	return ret, ok
}

// Progress returns task counters of a mission being scheduled; a released
// or unknown mission yields empty counters.
func (s *Service) Progress(missionID string) progress.Progress {
	if mc, ok := s.lookup(missionID); ok {
		return mc.Tracker.Snapshot()
	}
	return progress.Progress{MissionID: missionID}
}

// track registers in-flight work; it fails once Shutdown started
func (s *Service) track() bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.stopped {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Service) release(missionID string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if ret, ok := s.contexts[missionID]; ok {
		ret.cancel()
		delete(s.contexts, missionID)
	}
}

// Submit validates the task graph and persists a pending mission
func (s *Service) Submit(ctx context.Context, aMission *mission.Mission) (*mission.Mission, error) {
	if aMission == nil {
		return nil, fmt.Errorf("mission was nil")
	}
	if aMission.ID == "" {
		aMission.ID = idgen.Prefixed("mission")
	}
	now := clock.Now()
	if aMission.CreatedAt.IsZero() {
		aMission.CreatedAt = now
	}
	aMission.UpdatedAt = now
	aMission.Status = mission.StatusPending
	if aMission.Priority == "" {
		aMission.Priority = mission.PriorityNormal
	}
	if aMission.Policy == nil {
		aMission.Policy = s.config.Policy.Clone()
	}
	for i, task := range aMission.Tasks {
		if task == nil {
			continue
		}
		if task.MissionID == "" {
			task.MissionID = aMission.ID
		}
		if task.ClientID == "" {
			task.ClientID = aMission.ClientID
		}
		if task.Priority == "" {
			task.Priority = aMission.Priority
		}
		if task.CreatedAt.IsZero() {
			task.CreatedAt = now
		}
		task.Seq = i + 1
		task.Status = mission.TaskQueued
	}
	if _, err := graph.Build(aMission.ID, aMission.Tasks); err != nil {
		return nil, err
	}
	// tasks go first: a mission becomes visible to pollers only once complete
	for _, task := range aMission.Tasks {
		if err := s.repo.SaveTask(ctx, task); err != nil {
			return nil, fmt.Errorf("failed to save mission %v task %v: %w", aMission.ID, task.ID, err)
		}
	}
	if err := s.repo.SaveMission(ctx, aMission); err != nil {
		return nil, fmt.Errorf("failed to save mission %v: %w", aMission.ID, err)
	}
	s.Context(aMission.ID).Tracker.Recount(aMission.Tasks)
	s.logger.WithMission(aMission.ID).Info("mission submitted", "tasks", len(aMission.Tasks), "priority", aMission.Priority)
	return aMission, nil
}

// Cancel marks the mission and every non terminal task Cancelled. Outcomes of
// tasks still executing are discarded. Cancelling a finished mission is a no-op.
func (s *Service) Cancel(ctx context.Context, missionID string) error {
	mc, ok := s.lookup(missionID)
	if !ok {
		aMission, err := s.repo.LoadMission(ctx, missionID)
		if err != nil {
			return err
		}
		if aMission.Status.IsTerminal() {
			return nil
		}
		mc = s.Context(missionID)
	}
	mc.markCancelled()
	var err error
	for i := 0; i <= s.config.TickRetries; i++ {
		if err = s.cancel(ctx, mc); !errors.Is(err, dao.ErrConcurrency) {
			break
		}
	}
	return err
}

func (s *Service) cancel(ctx context.Context, mc *Context) error {
	aMission, err := s.repo.LoadMission(ctx, mc.MissionID)
	if err != nil {
		return err
	}
	if aMission.Status.IsTerminal() {
		s.release(mc.MissionID)
		return nil
	}
	for _, task := range aMission.Tasks {
		if task.Status.IsTerminal() {
			continue
		}
		task.Cancel(mission.ReasonMissionCancelled)
		if err = s.repo.SaveTask(ctx, task); err != nil {
			return err
		}
	}
	mc.Tracker.Recount(aMission.Tasks)
	aMission.SetStatus(mission.StatusCancelled)
	aMission.Reason = mission.ReasonMissionCancelled
	aMission.Results = results(mc, aMission)
	if err = s.repo.SaveMission(ctx, aMission); err != nil {
		return err
	}
	s.logger.WithMission(mc.MissionID).Info("mission cancelled")
	return nil
}

// OnDecision resumes the mission of a resolved approval request
func (s *Service) OnDecision(ctx context.Context, request *approval.Request) error {
	if request == nil || !request.Status.IsTerminal() {
		return nil
	}
	return s.Tick(ctx, request.MissionID)
}

// Run ticks the mission until it is terminal or waits only on human review
func (s *Service) Run(ctx context.Context, missionID string) (*mission.Mission, error) {
	mc := s.Context(missionID)
	for {
		if err := s.Tick(ctx, missionID); err != nil {
			return nil, err
		}
		aMission, err := s.repo.LoadMission(ctx, missionID)
		if err != nil {
			return nil, err
		}
		if aMission.Status.IsTerminal() {
			return aMission, nil
		}
		g, err := graph.Build(missionID, aMission.Tasks)
		if err != nil {
			return nil, err
		}
		frontier := g.Frontier(g.Completed())
		if len(frontier) == 0 {
			return aMission, nil
		}
		wait := s.config.PollingInterval
		now := clock.Now()
		for _, id := range frontier {
			if ok, at := mc.due(id, now); !ok && at.Sub(now) < wait {
				wait = at.Sub(now)
			} else if ok {
				wait = 0
				break
			}
		}
		if wait <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.shutdownCh:
			return nil, ErrShutdown
		case <-time.After(wait):
		}
	}
}

// Start polls active missions and consumes approval events until ctx is done
// or Shutdown is called.
func (s *Service) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if s.gateway != nil && s.gateway.Queue() != nil && s.track() {
		go func() {
			defer s.wg.Done()
			s.consume(ctx, s.gateway.Queue())
		}()
	}
	ticker := time.NewTicker(s.config.PollingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.shutdownCh:
			return nil
		case <-ticker.C:
			if err := s.poll(ctx); err != nil {
				s.logger.Error("failed to poll missions", "error", err.Error())
			}
		}
	}
}

func (s *Service) poll(ctx context.Context) error {
	missions, err := s.repo.ListMissions(ctx, mission.StatusPending, mission.StatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to list missions: %w", err)
	}
	for _, aMission := range missions {
		mc := s.Context(aMission.ID)
		if !mc.tick.TryLock() {
			continue
		}
		if !s.track() {
			mc.tick.Unlock()
			return nil
		}
		go func(mc *Context) {
			defer s.wg.Done()
			defer mc.tick.Unlock()
			if err := s.tickWithRetry(ctx, mc); err != nil {
				s.logger.WithMission(mc.MissionID).Error("tick failed", "error", err.Error())
			}
		}(mc)
	}
	return nil
}

func (s *Service) consume(ctx context.Context, queue messaging.Queue[approval.Event]) {
	for {
		msg, err := queue.Consume(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, messaging.ErrClosed) {
				s.logger.Warn("approval event consumer stopped", "error", err.Error())
			}
			return
		}
		event := msg.T()
		if event.Topic != approval.TopicRequestDecided {
			_ = msg.Ack()
			continue
		}
		if err = s.OnDecision(ctx, event.Request); err != nil {
			s.logger.Warn("failed to resume mission", "request_id", event.Request.ID, "error", err.Error())
			_ = msg.Nack(err)
			continue
		}
		_ = msg.Ack()
	}
}

// Shutdown stops Start loops and waits for in-flight ticks
func (s *Service) Shutdown(ctx context.Context) error {
	s.mux.Lock()
	s.stopped = true
	s.mux.Unlock()
	s.shutdown.Do(func() { close(s.shutdownCh) })
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// failFast returns mission failure policy
func failFast(aMission *mission.Mission) bool {
	return aMission.Policy.IsFailFast()
}

// requiresApproval reports whether task output passes the gateway
func (s *Service) requiresApproval(aMission *mission.Mission, task *mission.Task) bool {
	return s.gateway != nil && aMission.Policy.RequiresApproval(task.TaskType)
}
