package approval

import (
	"context"
	"fmt"
	"time"
)

// DecisionFunc decides what to do with a pending request, nil skips it
type DecisionFunc func(r *Request) *Decision

// AutoDecider starts a goroutine that polls ListPending and applies fn to
// every request. It returns stop(); call it (or cancel ctx) to exit.
func AutoDecider(ctx context.Context, svc Service, fn DecisionFunc, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				requests, _ := svc.ListPending(ctx)
				for _, r := range requests {
					if decision := fn(r); decision != nil {
						_, _ = svc.Resolve(ctx, r.ID, decision)
					}
				}
			}
		}
	}()
	return func() { close(done) }
}

// AutoApprove approves all pending requests
func AutoApprove(ctx context.Context, svc Service, interval time.Duration) func() {
	return AutoDecider(ctx, svc, func(*Request) *Decision { return Approve(nil) }, interval)
}

// AutoReject rejects all pending requests with the given reason
func AutoReject(ctx context.Context, svc Service, reason string, interval time.Duration) func() {
	return AutoDecider(ctx, svc, func(*Request) *Decision { return Reject(reason) }, interval)
}

// WaitForDecision polls the request until it is terminal or timeout elapses
func WaitForDecision(ctx context.Context, svc Service, id string, timeout time.Duration) (*Request, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		request, err := svc.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if request.Status.IsTerminal() {
			return request, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for decision on %v: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

// PendingFilter narrows ListPending results
type PendingFilter func(r *Request) bool

// WithMissionID keeps requests of a mission
func WithMissionID(missionID string) PendingFilter {
	return func(r *Request) bool { return r.MissionID == missionID }
}

// WithAgentType keeps requests produced by an agent type
func WithAgentType(agentType string) PendingFilter {
	return func(r *Request) bool { return r.AgentType == agentType }
}

// WithStatus keeps requests in status
func WithStatus(status Status) PendingFilter {
	return func(r *Request) bool { return r.Status == status }
}

// ListPending returns pending requests matching all filters
func ListPending(ctx context.Context, svc Service, filters ...PendingFilter) ([]*Request, error) {
	requests, err := svc.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	var ret []*Request
outer:
	for _, r := range requests {
		for _, filter := range filters {
			if !filter(r) {
				continue outer
			}
		}
		ret = append(ret, r)
	}
	return ret, nil
}
