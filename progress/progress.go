package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/mission/internal/clock"
	"github.com/viant/mission/model/mission"
)

// Delta represents an incremental counter change emitted by the scheduler
// or executor. Fields are signed.
type Delta struct {
	Attempts  int
	Retries   int
	Discarded int
}

// Progress keeps aggregated task counters for one mission. It is safe for
// concurrent use.
type Progress struct {
	MissionID string
	StartedAt time.Time

	TotalTasks     int
	QueuedTasks    int
	RunningTasks   int
	AwaitingReview int
	RetryingTasks  int
	CompletedTasks int
	FailedTasks    int
	CancelledTasks int

	Attempts  int
	Retries   int
	Discarded int

	sync.Mutex
	onChange func(Progress)
}

// New creates a mission tracker, onChange is optional.
func New(missionID string, onChange func(Progress)) *Progress {
	return &Progress{MissionID: missionID, StartedAt: clock.Now(), onChange: onChange}
}

// Update applies delta and notifies the callback outside the lock.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.Lock()
	p.Attempts += d.Attempts
	p.Retries += d.Retries
	p.Discarded += d.Discarded
	snapshot := p.copy()
	cb := p.onChange
	p.Unlock()
	if cb != nil {
		cb(snapshot)
	}
}

// Recount recomputes task counters from tasks; the callback fires only when
// a counter changed.
func (p *Progress) Recount(tasks []*mission.Task) {
	if p == nil {
		return
	}
	p.Lock()
	before := p.copy()
	p.TotalTasks = len(tasks)
	p.QueuedTasks, p.RunningTasks, p.AwaitingReview, p.RetryingTasks = 0, 0, 0, 0
	p.CompletedTasks, p.FailedTasks, p.CancelledTasks = 0, 0, 0
	for _, task := range tasks {
		switch task.Status {
		case mission.TaskQueued:
			p.QueuedTasks++
		case mission.TaskInProgress:
			if task.AwaitingReview() {
				p.AwaitingReview++
			} else {
				p.RunningTasks++
			}
		case mission.TaskRetrying:
			p.RetryingTasks++
		case mission.TaskComplete:
			p.CompletedTasks++
		case mission.TaskFailed:
			p.FailedTasks++
		case mission.TaskCancelled:
			p.CancelledTasks++
		}
	}
	snapshot := p.copy()
	changed := before.counters() != snapshot.counters()
	cb := p.onChange
	p.Unlock()
	if changed && cb != nil {
		cb(snapshot)
	}
}

func (p *Progress) copy() Progress {
	return Progress{
		MissionID:      p.MissionID,
		StartedAt:      p.StartedAt,
		TotalTasks:     p.TotalTasks,
		QueuedTasks:    p.QueuedTasks,
		RunningTasks:   p.RunningTasks,
		AwaitingReview: p.AwaitingReview,
		RetryingTasks:  p.RetryingTasks,
		CompletedTasks: p.CompletedTasks,
		FailedTasks:    p.FailedTasks,
		CancelledTasks: p.CancelledTasks,
		Attempts:       p.Attempts,
		Retries:        p.Retries,
		Discarded:      p.Discarded,
	}
}

func (p *Progress) counters() [8]int {
	return [8]int{p.TotalTasks, p.QueuedTasks, p.RunningTasks, p.AwaitingReview,
		p.RetryingTasks, p.CompletedTasks, p.FailedTasks, p.CancelledTasks}
}

// Snapshot returns a copy of the tracker suitable for read-only inspection.
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.Lock()
	defer p.Unlock()
	return p.copy()
}

// Map returns counters keyed by name, as stored in mission results.
func (p *Progress) Map() map[string]interface{} {
	s := p.Snapshot()
	return map[string]interface{}{
		"total":          s.TotalTasks,
		"queued":         s.QueuedTasks,
		"running":        s.RunningTasks,
		"awaitingReview": s.AwaitingReview,
		"retrying":       s.RetryingTasks,
		"complete":       s.CompletedTasks,
		"failed":         s.FailedTasks,
		"cancelled":      s.CancelledTasks,
		"attempts":       s.Attempts,
		"retries":        s.Retries,
		"discarded":      s.Discarded,
	}
}

// OnChange replaces the change callback, nil disables it.
func (p *Progress) OnChange(cb func(Progress)) {
	if p == nil {
		return
	}
	p.Lock()
	p.onChange = cb
	p.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithTracker embeds tracker in a derived context.
func WithTracker(ctx context.Context, tracker *Progress) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, tracker)
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// UpdateCtx applies delta to the tracker carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
