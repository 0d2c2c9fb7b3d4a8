package gateway

import (
	"github.com/viant/mission/logging"
	"github.com/viant/mission/service/approval"
	"github.com/viant/mission/service/messaging"
)

// Option customises the gateway
type Option func(s *Service)

// WithEventQueue publishes request.created and request.decided events on queue
func WithEventQueue(queue messaging.Queue[approval.Event]) Option {
	return func(s *Service) {
		s.events = queue
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

// WithIDGen overrides request id generator
func WithIDGen(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}
