package approval_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/mission/model/document"
	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/service/approval"
	"github.com/viant/mission/service/approval/gateway"
	"github.com/viant/mission/service/repository/kv"
)

func TestWaitForDecision(t *testing.T) {
	type testCase struct {
		name        string
		approve     bool
		expectError bool
		timeout     time.Duration
		decideDelay time.Duration
	}

	tests := []testCase{{
		name:        "approved before timeout",
		approve:     true,
		timeout:     500 * time.Millisecond,
		decideDelay: 10 * time.Millisecond,
	}, {
		name:        "rejected before timeout",
		approve:     false,
		timeout:     500 * time.Millisecond,
		decideDelay: 10 * time.Millisecond,
	}, {
		name:        "timeout waiting for decision",
		approve:     true,
		expectError: true,
		timeout:     50 * time.Millisecond,
		decideDelay: 200 * time.Millisecond,
	}}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			svc := gateway.New(kv.NewMemory())
			task := &mission.Task{ID: "t1", MissionID: "m1", ClientID: "acme", AgentType: "writer"}
			request, err := svc.Submit(ctx, task, document.Document{"body": "text"})
			require.NoError(t, err)

			go func() {
				time.Sleep(tc.decideDelay)
				decision := approval.Reject("not good")
				if tc.approve {
					decision = approval.Approve(nil)
				}
				_, _ = svc.Resolve(ctx, request.ID, decision)
			}()

			decided, err := approval.WaitForDecision(ctx, svc, request.ID, tc.timeout)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.approve, decided.Status.IsApproved())
		})
	}
}

func TestAutoDecider(t *testing.T) {
	ctx := context.Background()
	svc := gateway.New(kv.NewMemory())
	for _, id := range []string{"a", "b"} {
		_, err := svc.Submit(ctx, &mission.Task{ID: id, MissionID: "m1", AgentType: "writer"}, document.Document{"body": id})
		require.NoError(t, err)
	}
	stop := approval.AutoDecider(ctx, svc, func(r *approval.Request) *approval.Decision {
		if r.TaskID == "a" {
			return approval.Approve(nil)
		}
		return approval.Reject("b is not wanted")
	}, 5*time.Millisecond)
	defer stop()

	assert.Eventually(t, func() bool {
		pending, err := svc.ListPending(ctx)
		return err == nil && len(pending) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestListPending_Filters(t *testing.T) {
	ctx := context.Background()
	svc := gateway.New(kv.NewMemory())
	for _, task := range []*mission.Task{
		{ID: "a", MissionID: "m1", AgentType: "writer"},
		{ID: "b", MissionID: "m1", AgentType: "research"},
		{ID: "c", MissionID: "m2", AgentType: "writer"},
	} {
		_, err := svc.Submit(ctx, task, document.Document{"body": task.ID})
		require.NoError(t, err)
	}
	var testCases = []struct {
		description string
		filters     []approval.PendingFilter
		expect      int
	}{
		{description: "all", expect: 3},
		{description: "mission", filters: []approval.PendingFilter{approval.WithMissionID("m1")}, expect: 2},
		{description: "mission and agent", filters: []approval.PendingFilter{approval.WithMissionID("m1"), approval.WithAgentType("writer")}, expect: 1},
		{description: "editing", filters: []approval.PendingFilter{approval.WithStatus(approval.StatusEditing)}, expect: 0},
	}
	for _, testCase := range testCases {
		actual, err := approval.ListPending(ctx, svc, testCase.filters...)
		require.NoError(t, err, testCase.description)
		assert.Len(t, actual, testCase.expect, testCase.description)
	}
}
