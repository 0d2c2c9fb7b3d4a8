package gateway

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/mission/model/document"
	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/service/approval"
	"github.com/viant/mission/service/messaging/memory"
	"github.com/viant/mission/service/repository/kv"
	"github.com/viant/mission/service/rule"
)

func testRules() []*rule.Rule {
	return []*rule.Rule{
		{
			ID: "10-banned", ClientID: "acme", Priority: 1, Active: true,
			Conditions: []*rule.Condition{{Kind: rule.KindContainsKeyword, Field: "body", Keywords: []string{"spam"}}},
			Action:     rule.Action{Verdict: rule.ActionReject, Reason: "banned keyword"},
		},
		{
			ID: "20-quality", ClientID: "acme", AgentType: "writer", Priority: 2, Active: true,
			Conditions: []*rule.Condition{{Kind: rule.KindScoreAbove, Threshold: rule.Threshold(0.8)}},
			Action:     rule.Action{Verdict: rule.ActionApprove},
		},
		{
			ID: "05-broken", ClientID: "acme", Active: true,
			Conditions: []*rule.Condition{{Kind: rule.KindExpr, Expr: "contains(body"}},
			Action:     rule.Action{Verdict: rule.ActionApprove},
		},
	}
}

func newTestService(t *testing.T) (*Service, *memory.Queue[approval.Event]) {
	repo := kv.NewMemory()
	for _, aRule := range testRules() {
		require.NoError(t, repo.SaveRule(context.Background(), aRule))
	}
	queue := memory.NewQueue[approval.Event](memory.DefaultConfig())
	seq := 0
	srv := New(repo, WithEventQueue(queue), WithIDGen(func() string {
		seq++
		return fmt.Sprintf("req-%d", seq)
	}))
	return srv, queue
}

func testTask() *mission.Task {
	return &mission.Task{ID: "t1", MissionID: "m1", ClientID: "acme", AgentType: "writer", TaskType: "draft", Status: mission.TaskInProgress}
}

func drain(t *testing.T, queue *memory.Queue[approval.Event]) []string {
	var topics []string
	for queue.Size() > 0 {
		msg, err := queue.Consume(context.Background())
		require.NoError(t, err)
		topics = append(topics, msg.T().Topic)
		require.NoError(t, msg.Ack())
	}
	return topics
}

func TestService_Submit(t *testing.T) {
	var testCases = []struct {
		description  string
		content      document.Document
		expectStatus approval.Status
		expectRule   string
		expectReason string
		expectTopics []string
	}{
		{
			description:  "banned keyword rejected",
			content:      document.Document{"body": "buy SPAM now", "score": 0.99},
			expectStatus: approval.StatusRejected,
			expectRule:   "10-banned",
			expectReason: "banned keyword",
			expectTopics: []string{approval.TopicRequestCreated, approval.TopicRequestDecided},
		},
		{
			description:  "high score auto approved",
			content:      document.Document{"body": "fine text", "score": 0.95},
			expectStatus: approval.StatusAutoApproved,
			expectRule:   "20-quality",
			expectTopics: []string{approval.TopicRequestCreated, approval.TopicRequestDecided},
		},
		{
			description:  "no rule fires",
			content:      document.Document{"body": "fine text", "score": 0.2},
			expectStatus: approval.StatusPending,
			expectTopics: []string{approval.TopicRequestCreated},
		},
	}
	for _, testCase := range testCases {
		srv, queue := newTestService(t)
		request, err := srv.Submit(context.Background(), testTask(), testCase.content)
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expectStatus, request.Status, testCase.description)
		assert.Equal(t, testCase.expectRule, request.RuleID, testCase.description)
		assert.Equal(t, testCase.expectReason, request.RejectionReason, testCase.description)
		switch testCase.expectStatus {
		case approval.StatusAutoApproved:
			assert.NotNil(t, request.ApprovedAt, testCase.description)
		case approval.StatusRejected:
			assert.NotNil(t, request.RejectedAt, testCase.description)
		}
		stored, err := srv.Load(context.Background(), request.ID)
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expectStatus, stored.Status, testCase.description)
		assert.Equal(t, testCase.expectTopics, drain(t, queue), testCase.description)
	}
}

func TestService_Resolve(t *testing.T) {
	ctx := context.Background()
	srv, queue := newTestService(t)
	request, err := srv.Submit(ctx, testTask(), document.Document{"body": "draft"})
	require.NoError(t, err)
	require.Equal(t, approval.StatusPending, request.Status)

	pending, err := srv.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	resolved, err := srv.Resolve(ctx, request.ID, approval.Approve(nil))
	require.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, resolved.Status)
	assert.NotNil(t, resolved.ApprovedAt)

	_, err = srv.Resolve(ctx, request.ID, approval.Reject("too late"))
	assert.True(t, errors.Is(err, approval.ErrAlreadyResolved))
	stored, err := srv.Load(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, stored.Status)
	assert.Empty(t, stored.RejectionReason)

	assert.Equal(t, []string{approval.TopicRequestCreated, approval.TopicRequestDecided}, drain(t, queue))

	_, err = srv.Resolve(ctx, "missing", approval.Approve(nil))
	assert.True(t, errors.Is(err, approval.ErrNotFound))
}

func TestService_EditingFlow(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestService(t)
	request, err := srv.Submit(ctx, testTask(), document.Document{"body": "first draft"})
	require.NoError(t, err)

	editing, err := srv.Resolve(ctx, request.ID, approval.Edit(document.Document{"body": "second draft"}))
	require.NoError(t, err)
	assert.Equal(t, approval.StatusEditing, editing.Status)

	pending, err := srv.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	returned, err := srv.Resolve(ctx, request.ID, &approval.Decision{Verdict: approval.VerdictReturn})
	require.NoError(t, err)
	assert.Equal(t, approval.StatusPending, returned.Status)

	_, err = srv.Resolve(ctx, request.ID, approval.Edit(nil))
	require.NoError(t, err)
	approved, err := srv.Resolve(ctx, request.ID, approval.Approve(document.Document{"body": "final"}))
	require.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, approved.Status)
	assert.Equal(t, "final", approved.FinalContent()["body"])
	assert.Equal(t, "first draft", approved.Content["body"])
}

func TestService_ConcurrentResolve(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestService(t)
	request, err := srv.Submit(ctx, testTask(), document.Document{"body": "draft"})
	require.NoError(t, err)

	type result struct{ err error }
	results := make(chan result, 2)
	for _, decision := range []*approval.Decision{approval.Approve(nil), approval.Reject("no")} {
		go func(decision *approval.Decision) {
			_, err := srv.Resolve(ctx, request.ID, decision)
			results <- result{err: err}
		}(decision)
	}
	succeeded := 0
	for i := 0; i < 2; i++ {
		select {
		case r := <-results:
			if r.err == nil {
				succeeded++
			}
		case <-time.After(time.Second):
			t.Fatal("resolve timed out")
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestService_SubmitWithFullEventQueue(t *testing.T) {
	repo := kv.NewMemory()
	for _, aRule := range testRules() {
		require.NoError(t, repo.SaveRule(context.Background(), aRule))
	}
	config := memory.DefaultConfig()
	config.QueueBuffer = 3
	queue := memory.NewQueue[approval.Event](config)
	srv := New(repo, WithEventQueue(queue))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 5; i++ {
		task := testTask()
		task.ID = fmt.Sprintf("t%d", i)
		started := time.Now()
		request, err := srv.Submit(ctx, task, document.Document{"body": "fine", "score": 0.9})
		require.NoError(t, err)
		assert.Equal(t, approval.StatusAutoApproved, request.Status)
		assert.Less(t, time.Since(started), 500*time.Millisecond, "submit %d waited on the event queue", i)
	}
	assert.Equal(t, 3, queue.Size())
	assert.NoError(t, ctx.Err())
}
