package mission

import (
	"github.com/viant/afs/storage"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/viant/mission/logging"
	"github.com/viant/mission/progress"
	"github.com/viant/mission/service/agent"
	"github.com/viant/mission/service/executor"
	"github.com/viant/mission/service/repository"
	"github.com/viant/mission/service/scheduler"
	"github.com/viant/mission/tracing"
)

// Option customises Service
type Option func(s *Service)

// WithConfig sets the configuration, nil sections inherit defaults
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithRepository sets the persistence layer, overriding config store settings
func WithRepository(repo repository.Service) Option {
	return func(s *Service) {
		s.repo = repo
	}
}

// WithAgent registers an agent invoker
func WithAgent(agentType string, invoker agent.Invoker) Option {
	return func(s *Service) {
		s.agents.Register(agentType, invoker)
	}
}

// WithAgentFunc registers an agent function
func WithAgentFunc(agentType string, fn agent.Func) Option {
	return func(s *Service) {
		s.agents.RegisterFunc(agentType, fn)
	}
}

// WithFallbackAgent sets the invoker used for unregistered agent types
func WithFallbackAgent(invoker agent.Invoker) Option {
	return func(s *Service) {
		s.agents.SetFallback(invoker)
	}
}

// WithLogger sets logger, overriding config log settings
func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithProgressListener registers a callback invoked on every mission progress change
func WithProgressListener(fn func(progress.Progress)) Option {
	return func(s *Service) {
		s.schedulerOptions = append(s.schedulerOptions, scheduler.WithProgressListener(fn))
	}
}

// WithExecutorListener registers a callback invoked after every agent attempt
func WithExecutorListener(listener executor.Listener) Option {
	return func(s *Service) {
		s.executorOptions = append(s.executorOptions, executor.WithListener(listener))
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. The first
// successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}

// WithDefinitionBaseURL resolves relative mission and rule definition locations
func WithDefinitionBaseURL(URL string) Option {
	return func(s *Service) {
		s.definitionURL = URL
	}
}

// WithDefinitionFsOptions sets storage options used to load definitions
func WithDefinitionFsOptions(options ...storage.Option) Option {
	return func(s *Service) {
		s.definitionFs = options
	}
}
