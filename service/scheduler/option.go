package scheduler

import (
	"github.com/viant/mission/logging"
	"github.com/viant/mission/progress"
	"github.com/viant/mission/service/approval"
)

// Option customises the scheduler
type Option func(*Service)

// WithConfig sets the configuration
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithGateway routes gated task output through the approval gateway
func WithGateway(gateway approval.Service) Option {
	return func(s *Service) {
		s.gateway = gateway
	}
}

// WithLogger sets logger
func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWorkers sets the number of tasks executed in parallel
func WithWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.config.Workers = count
		}
	}
}

// WithProgressListener registers a callback invoked on every progress change
func WithProgressListener(fn func(progress.Progress)) Option {
	return func(s *Service) {
		s.onProgress = fn
	}
}
