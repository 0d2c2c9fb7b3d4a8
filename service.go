package mission

import (
	"errors"
	"fmt"
	"strings"

	"github.com/viant/afs/storage"

	"github.com/viant/mission/logging"
	"github.com/viant/mission/service/agent"
	"github.com/viant/mission/service/approval"
	"github.com/viant/mission/service/approval/gateway"
	"github.com/viant/mission/service/definition"
	"github.com/viant/mission/service/executor"
	"github.com/viant/mission/service/messaging/memory"
	"github.com/viant/mission/service/repository"
	"github.com/viant/mission/service/repository/kv"
	"github.com/viant/mission/service/repository/sqlite"
	"github.com/viant/mission/service/scheduler"
	"github.com/viant/mission/tracing"
)

// Service wires repository, agents, executor, approval gateway and scheduler
type Service struct {
	config           *Config
	runtime          *Runtime
	repo             repository.Service
	agents           *agent.Registry
	logger           *logging.Logger
	events           *memory.Queue[approval.Event]
	schedulerOptions []scheduler.Option
	executorOptions  []executor.Option
	definitionURL    string
	definitionFs     []storage.Option
}

// New creates a service; repository and logger follow config unless supplied with options
func New(options ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig(), agents: agent.NewRegistry()}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init() error {
	s.config.Init()
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.logger == nil {
		logger, err := logging.Open(s.config.Log.Location, s.config.Log.Level)
		if err != nil {
			return err
		}
		s.logger = logger
	}
	if s.config.Tracing.Enabled {
		if err := tracing.Init(s.config.Tracing.Service, "", s.config.Tracing.Output); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
	}
	if s.repo == nil {
		repo, err := openRepository(&s.config.Store)
		if err != nil {
			return err
		}
		s.repo = repo
	}

	var gatewayOptions = []gateway.Option{gateway.WithLogger(s.logger.WithComponent("gateway"))}
	if s.config.Events.Enabled {
		s.events = memory.NewQueue[approval.Event](s.config.Events.Queue)
		gatewayOptions = append(gatewayOptions, gateway.WithEventQueue(s.events))
	}
	approvals := gateway.New(s.repo, gatewayOptions...)

	executorOptions := append([]executor.Option{
		executor.WithConfig(s.config.Executor),
		executor.WithLogger(s.logger.WithComponent("executor")),
	}, s.executorOptions...)
	exec := executor.New(s.agents, executorOptions...)

	schedulerOptions := append([]scheduler.Option{
		scheduler.WithConfig(s.config.Scheduler),
		scheduler.WithGateway(approvals),
		scheduler.WithLogger(s.logger.WithComponent("scheduler")),
	}, s.schedulerOptions...)

	s.runtime = &Runtime{
		repo:        s.repo,
		gateway:     approvals,
		scheduler:   scheduler.New(s.repo, exec, schedulerOptions...),
		definitions: definition.New(definition.WithBaseURL(s.definitionURL), definition.WithFsOptions(s.definitionFs...)),
		logger:      s.logger,
	}
	return nil
}

func openRepository(config *StoreConfig) (repository.Service, error) {
	switch strings.ToLower(config.Kind) {
	case StoreFS:
		return kv.NewFS(config.URL)
	case StoreSQLite:
		return sqlite.Open(config.URL)
	default:
		return kv.NewMemory(), nil
	}
}

// Runtime returns the mission runtime
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Config returns effective configuration
func (s *Service) Config() *Config {
	return s.config
}

// RegisterAgent registers an agent invoker; it can be called before Start
func (s *Service) RegisterAgent(agentType string, invoker agent.Invoker) {
	s.agents.Register(agentType, invoker)
}

// Agents returns registered agent types
func (s *Service) Agents() []string {
	return s.agents.Types()
}

// Close releases repository and log file
func (s *Service) Close() error {
	var errs []error
	if closer, ok := s.repo.(repository.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if s.events != nil {
		errs = append(errs, s.events.Close())
	}
	errs = append(errs, s.logger.Close())
	return errors.Join(errs...)
}
