package approval

import (
	"context"

	"github.com/viant/mission/model/document"
	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/service/messaging"
)

// Service defines the approval gateway interface
type Service interface {
	// Submit creates a request for task content and applies the rule engine verdict
	Submit(ctx context.Context, task *mission.Task, content document.Document) (*Request, error)
	// Resolve records a reviewer decision
	Resolve(ctx context.Context, id string, decision *Decision) (*Request, error)
	// Load returns request by id
	Load(ctx context.Context, id string) (*Request, error)
	// ListPending returns requests waiting for a reviewer (Pending or Editing)
	ListPending(ctx context.Context) ([]*Request, error)
	// Queue returns created/decided event queue, nil when events are disabled
	Queue() messaging.Queue[Event]
}
