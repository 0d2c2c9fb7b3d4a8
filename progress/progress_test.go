package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/mission/model/mission"
)

func TestProgress_Recount(t *testing.T) {
	var notified []Progress
	tracker := New("m1", func(p Progress) { notified = append(notified, p) })

	running := mission.NewTask("a", "echo", "draft", nil)
	running.Start()
	review := mission.NewTask("b", "echo", "draft", nil)
	review.Start()
	review.ApprovalID = "r1"
	done := mission.NewTask("c", "echo", "draft", nil)
	done.Complete(nil)
	failed := mission.NewTask("d", "echo", "draft", nil)
	failed.Fail(mission.ReasonTimeout)
	queued := mission.NewTask("e", "echo", "draft", nil)
	tasks := []*mission.Task{running, review, done, failed, queued}

	tracker.Recount(tasks)
	tracker.Recount(tasks)
	snapshot := tracker.Snapshot()
	assert.Equal(t, 5, snapshot.TotalTasks)
	assert.Equal(t, 1, snapshot.RunningTasks)
	assert.Equal(t, 1, snapshot.AwaitingReview)
	assert.Equal(t, 1, snapshot.CompletedTasks)
	assert.Equal(t, 1, snapshot.FailedTasks)
	assert.Equal(t, 1, snapshot.QueuedTasks)
	assert.Len(t, notified, 1, "unchanged recount must not notify")
}

func TestProgress_Context(t *testing.T) {
	tracker := New("m1", nil)
	ctx := WithTracker(context.Background(), tracker)
	UpdateCtx(ctx, Delta{Attempts: 2, Retries: 1})
	UpdateCtx(context.Background(), Delta{Attempts: 5})

	counters := tracker.Map()
	assert.Equal(t, 2, counters["attempts"])
	assert.Equal(t, 1, counters["retries"])

	var nilTracker *Progress
	nilTracker.Update(Delta{Attempts: 1})
	assert.Equal(t, Progress{}.TotalTasks, nilTracker.Snapshot().TotalTasks)
}
