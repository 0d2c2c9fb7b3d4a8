package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/mission/logging"
	"github.com/viant/mission/model/document"
	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/service/agent"
	"github.com/viant/mission/tracing"
)

// Outcome represents the result of one task attempt
type Outcome struct {
	TaskID   string
	Output   document.Document
	Err      error
	Reason   string
	Attempt  int
	Duration time.Duration
}

// Success returns true when the attempt produced output
func (o *Outcome) Success() bool {
	return o != nil && o.Err == nil
}

// Listener is invoked after every attempt
type Listener func(task *mission.Task, outcome *Outcome)

// Service represents a task executor
type Service interface {
	// Execute runs one attempt of task
	Execute(ctx context.Context, task *mission.Task) *Outcome
	// ShouldRetry returns whether another attempt is allowed after attempts, and its delay
	ShouldRetry(attempts int) (bool, time.Duration)
}

// Option is used to customise the executor instance
type Option func(*service)

// WithConfig sets executor config
func WithConfig(config *Config) Option {
	return func(s *service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithLogger sets logger
func WithLogger(logger *logging.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithListener sets attempt listener, nil disables it
func WithListener(listener Listener) Option {
	return func(s *service) {
		s.listener = listener
	}
}

type service struct {
	invoker  agent.Invoker
	config   *Config
	logger   *logging.Logger
	listener Listener
}

type result struct {
	output document.Document
	err    error
}

// Execute runs a single attempt under the configured deadline
func (s *service) Execute(ctx context.Context, task *mission.Task) (outcome *Outcome) {
	started := time.Now()
	outcome = &Outcome{TaskID: task.ID}
	ctx, span := tracing.StartSpan(ctx, "executor.execute", tracing.KindClient)
	span.WithAttributes(map[string]string{
		tracing.AttrMissionID: task.MissionID,
		tracing.AttrTaskID:    task.ID,
		tracing.AttrAgentType: task.AgentType,
	})
	defer func() {
		outcome.Duration = time.Since(started)
		tracing.EndSpan(span, outcome.Err)
		if s.listener != nil {
			s.listener(task, outcome)
		}
	}()

	if err := ctx.Err(); err != nil {
		outcome.Err = fmt.Errorf("%w: %v", ErrCancelled, err)
		outcome.Reason = mission.ReasonMissionCancelled
		return outcome
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("agent %v panicked: %v", task.AgentType, r)}
			}
		}()
		output, err := s.invoker.Invoke(attemptCtx, task.AgentType, task.TaskType, task.Input.Clone())
		done <- result{output: output, err: err}
	}()

	logger := s.logger.WithMission(task.MissionID).WithTask(task.ID)
	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil {
				outcome.Err = fmt.Errorf("%w: %v", ErrTimeout, res.err)
				outcome.Reason = mission.ReasonTimeout
			} else {
				outcome.Err = fmt.Errorf("%w: %v", ErrAgentFailure, res.err)
				outcome.Reason = res.err.Error()
			}
			logger.Warn("task attempt failed", "agent", task.AgentType, "error", res.err.Error())
			return outcome
		}
		if res.output == nil {
			res.output = document.Document{}
		}
		outcome.Output = res.output
		logger.Debug("task attempt succeeded", "agent", task.AgentType)
		return outcome
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			outcome.Err = fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
			outcome.Reason = mission.ReasonMissionCancelled
			return outcome
		}
		outcome.Err = fmt.Errorf("%w: %v exceeded %v", ErrTimeout, task.AgentType, s.config.Timeout)
		outcome.Reason = mission.ReasonTimeout
		logger.Warn("task attempt timed out", "agent", task.AgentType, "timeout", s.config.Timeout.String())
		return outcome
	}
}

// ShouldRetry returns whether another attempt is allowed
func (s *service) ShouldRetry(attempts int) (bool, time.Duration) {
	return s.config.ShouldRetry(attempts)
}

// New creates an executor invoking agents through invoker
func New(invoker agent.Invoker, opts ...Option) Service {
	ret := &service{
		invoker: invoker,
		config:  DefaultConfig(),
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
