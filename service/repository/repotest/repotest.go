// Package repotest exercises a repository.Service implementation against
// the behaviour every backend shares.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/mission/model/document"
	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/service/approval"
	"github.com/viant/mission/service/dao"
	"github.com/viant/mission/service/repository"
	"github.com/viant/mission/service/rule"
)

// Run runs the shared repository checks
func Run(t *testing.T, repo repository.Service) {
	t.Run("missions", func(t *testing.T) { missions(t, repo) })
	t.Run("concurrency", func(t *testing.T) { concurrency(t, repo) })
	t.Run("requests", func(t *testing.T) { requests(t, repo) })
	t.Run("rules", func(t *testing.T) { rules(t, repo) })
}

func missions(t *testing.T, repo repository.Service) {
	ctx := context.Background()
	aMission := mission.New("m1", "acme", "write post", mission.PriorityHigh)
	require.NoError(t, repo.SaveMission(ctx, aMission))
	assert.Equal(t, 1, aMission.Version)

	second := mission.NewTask("b", "writer", "draft", document.Document{"topic": "go"}, "a")
	second.MissionID, second.Seq = "m1", 2
	first := mission.NewTask("a", "research", "outline", nil)
	first.MissionID, first.Seq = "m1", 1
	require.NoError(t, repo.SaveTask(ctx, second))
	require.NoError(t, repo.SaveTask(ctx, first))

	other := mission.New("m2", "acme", "other", mission.PriorityLow)
	other.SetStatus(mission.StatusComplete)
	require.NoError(t, repo.SaveMission(ctx, other))

	loaded, err := repo.LoadMission(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "write post", loaded.Goal)
	assert.Equal(t, mission.PriorityHigh, loaded.Priority)
	require.Len(t, loaded.Tasks, 2)
	assert.Equal(t, "a", loaded.Tasks[0].ID)
	assert.Equal(t, "b", loaded.Tasks[1].ID)
	assert.Equal(t, []string{"a"}, loaded.Tasks[1].DependsOn)
	topic, _ := loaded.Tasks[1].Input.String("topic")
	assert.Equal(t, "go", topic)

	_, err = repo.LoadMission(ctx, "missing")
	assert.True(t, errors.Is(err, dao.ErrNotFound))

	all, err := repo.ListMissions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	done, err := repo.ListMissions(ctx, mission.StatusComplete)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "m2", done[0].ID)

	orphan := mission.NewTask("x", "writer", "draft", nil)
	assert.Error(t, repo.SaveTask(ctx, orphan))
}

func concurrency(t *testing.T, repo repository.Service) {
	ctx := context.Background()
	aMission := mission.New("c1", "acme", "race", mission.PriorityNormal)
	require.NoError(t, repo.SaveMission(ctx, aMission))

	first, err := repo.LoadMission(ctx, "c1")
	require.NoError(t, err)
	second, err := repo.LoadMission(ctx, "c1")
	require.NoError(t, err)

	first.SetStatus(mission.StatusInProgress)
	require.NoError(t, repo.SaveMission(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.SetStatus(mission.StatusCancelled)
	err = repo.SaveMission(ctx, second)
	assert.True(t, errors.Is(err, dao.ErrConcurrency))
	assert.Equal(t, 1, second.Version)

	current, err := repo.LoadMission(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, mission.StatusInProgress, current.Status)

	task := mission.NewTask("t", "writer", "draft", nil)
	task.MissionID = "c1"
	require.NoError(t, repo.SaveTask(ctx, task))
	stale := task.Clone()
	task.Start()
	require.NoError(t, repo.SaveTask(ctx, task))
	stale.Start()
	assert.True(t, errors.Is(repo.SaveTask(ctx, stale), dao.ErrConcurrency))
}

func requests(t *testing.T, repo repository.Service) {
	ctx := context.Background()
	task := &mission.Task{ID: "t1", MissionID: "r1", ClientID: "acme", AgentType: "writer", TaskType: "draft"}
	pending := approval.NewRequest("req1", task, document.Document{"body": "hello"})
	require.NoError(t, repo.SaveApprovalRequest(ctx, pending))

	time.Sleep(time.Millisecond)
	approved := approval.NewRequest("req2", task, document.Document{"body": "bye"})
	approved.AutoApprove("rule-1")
	require.NoError(t, repo.SaveApprovalRequest(ctx, approved))

	foreign := approval.NewRequest("req3", &mission.Task{ID: "t9", MissionID: "r2"}, nil)
	require.NoError(t, repo.SaveApprovalRequest(ctx, foreign))

	loaded, err := repo.LoadApprovalRequest(ctx, "req2")
	require.NoError(t, err)
	assert.Equal(t, approval.StatusAutoApproved, loaded.Status)
	assert.Equal(t, "rule-1", loaded.RuleID)
	assert.NotNil(t, loaded.ApprovedAt)

	_, err = repo.LoadApprovalRequest(ctx, "missing")
	assert.True(t, errors.Is(err, dao.ErrNotFound))

	mine, err := repo.ListApprovalRequests(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "req1", mine[0].ID)

	open, err := repo.ListApprovalRequests(ctx, "", approval.StatusPending, approval.StatusEditing)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	stale := loaded.Clone()
	require.NoError(t, repo.SaveApprovalRequest(ctx, loaded))
	assert.True(t, errors.Is(repo.SaveApprovalRequest(ctx, stale), dao.ErrConcurrency))
}

func rules(t *testing.T, repo repository.Service) {
	ctx := context.Background()
	for _, aRule := range []*rule.Rule{
		{ID: "any-agent", ClientID: "acme", Active: true, Action: rule.Action{Verdict: rule.ActionApprove}},
		{ID: "writer-only", ClientID: "acme", AgentType: "writer", Active: true, Action: rule.Action{Verdict: rule.ActionReject}},
		{ID: "other-client", ClientID: "globex", Active: true, Action: rule.Action{Verdict: rule.ActionApprove}},
		{ID: "global", Active: true, Action: rule.Action{Verdict: rule.ActionReview}},
	} {
		require.NoError(t, repo.SaveRule(ctx, aRule))
	}
	var testCases = []struct {
		description string
		clientID    string
		agentType   string
		expect      []string
	}{
		{description: "writer", clientID: "acme", agentType: "writer", expect: []string{"any-agent", "global", "writer-only"}},
		{description: "researcher", clientID: "acme", agentType: "research", expect: []string{"any-agent", "global"}},
		{description: "other client", clientID: "globex", agentType: "writer", expect: []string{"global", "other-client"}},
		{description: "unknown client", clientID: "initech", agentType: "writer", expect: []string{"global"}},
	}
	for _, testCase := range testCases {
		actual, err := repo.ListRules(ctx, testCase.clientID, testCase.agentType)
		require.NoError(t, err, testCase.description)
		var ids []string
		for _, aRule := range rule.Order(testCase.clientID, testCase.agentType, actual) {
			ids = append(ids, aRule.ID)
		}
		assert.Equal(t, testCase.expect, ids, testCase.description)
	}
}
