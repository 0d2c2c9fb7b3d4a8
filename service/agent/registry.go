package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/viant/mission/model/document"
)

// Registry routes invocations to invokers registered by agent type
type Registry struct {
	mux      sync.RWMutex
	invokers map[string]Invoker
	fallback Invoker
}

// Register adds or replaces invoker for agentType
func (r *Registry) Register(agentType string, invoker Invoker) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.invokers[agentType] = invoker
}

// RegisterFunc adds function invoker for agentType
func (r *Registry) RegisterFunc(agentType string, fn Func) {
	r.Register(agentType, fn)
}

// SetFallback sets invoker used for unregistered agent types
func (r *Registry) SetFallback(invoker Invoker) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.fallback = invoker
}

// Lookup returns invoker for agentType
func (r *Registry) Lookup(agentType string) (Invoker, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	if invoker, ok := r.invokers[agentType]; ok {
		return invoker, true
	}
	if r.fallback != nil {
		return r.fallback, true
	}
	return nil, false
}

// Types returns registered agent types sorted by name
func (r *Registry) Types() []string {
	r.mux.RLock()
	defer r.mux.RUnlock()
	ret := make([]string, 0, len(r.invokers))
	for name := range r.invokers {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Invoke routes invocation to registered invoker
func (r *Registry) Invoke(ctx context.Context, agentType, taskType string, input document.Document) (document.Document, error) {
	invoker, ok := r.Lookup(agentType)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownAgent, agentType)
	}
	return invoker.Invoke(ctx, agentType, taskType, input)
}

// NewRegistry creates a registry
func NewRegistry() *Registry {
	return &Registry{invokers: map[string]Invoker{}}
}
