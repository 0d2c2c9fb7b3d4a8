package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/viant/mission/progress"
	"github.com/viant/mission/service/executor"
)

// Context holds in-process scheduling state of one mission: attempt
// counters, retry deadlines and outcomes discarded after cancellation. It is
// not persisted; a restarted scheduler starts counting attempts from zero.
type Context struct {
	MissionID string
	Tracker   *progress.Progress

	tick      sync.Mutex
	mux       sync.Mutex
	attempts  map[string]int
	notBefore map[string]time.Time
	discarded []*executor.Outcome
	cancelled bool

	done   context.Context
	cancel context.CancelFunc
}

func newContext(missionID string, onChange func(progress.Progress)) *Context {
	done, cancel := context.WithCancel(context.Background())
	return &Context{
		MissionID: missionID,
		Tracker:   progress.New(missionID, onChange),
		attempts:  map[string]int{},
		notBefore: map[string]time.Time{},
		done:      done,
		cancel:    cancel,
	}
}

// Attempts returns number of attempts made for task
func (c *Context) Attempts(taskID string) int {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.attempts[taskID]
}

func (c *Context) nextAttempt(taskID string) int {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.attempts[taskID]++
	return c.attempts[taskID]
}

func (c *Context) deferUntil(taskID string, at time.Time) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.notBefore[taskID] = at
}

// due reports whether task may be dispatched at now, and otherwise when
func (c *Context) due(taskID string, now time.Time) (bool, time.Time) {
	c.mux.Lock()
	defer c.mux.Unlock()
	at, ok := c.notBefore[taskID]
	if !ok || !now.Before(at) {
		return true, time.Time{}
	}
	return false, at
}

func (c *Context) discard(outcome *executor.Outcome) {
	c.mux.Lock()
	c.discarded = append(c.discarded, outcome)
	c.mux.Unlock()
	c.Tracker.Update(progress.Delta{Discarded: 1})
}

// Discarded returns outcomes received after the mission was cancelled
func (c *Context) Discarded() []*executor.Outcome {
	c.mux.Lock()
	defer c.mux.Unlock()
	return append([]*executor.Outcome(nil), c.discarded...)
}

// markCancelled is sticky; in-flight agent calls observe it via done
func (c *Context) markCancelled() {
	c.mux.Lock()
	c.cancelled = true
	c.mux.Unlock()
	c.cancel()
}

// Cancelled reports whether the mission was cancelled
func (c *Context) Cancelled() bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.cancelled
}
