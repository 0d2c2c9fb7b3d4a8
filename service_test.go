package mission_test

import (
	"context"
	"embed"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/viant/afs/embed"

	"github.com/viant/mission"
	"github.com/viant/mission/logging"
	"github.com/viant/mission/model/document"
	amission "github.com/viant/mission/model/mission"
	"github.com/viant/mission/service/agent"
	"github.com/viant/mission/service/approval"
)

//go:embed testdata/*
var embedFS embed.FS

func testConfig() *mission.Config {
	config := mission.DefaultConfig()
	config.Scheduler.PollingInterval = 5 * time.Millisecond
	config.Executor.Timeout = time.Second
	config.Executor.BaseDelay = time.Millisecond
	config.Executor.MaxDelay = 5 * time.Millisecond
	return config
}

func newService(t *testing.T, config *mission.Config, options ...mission.Option) *mission.Service {
	options = append([]mission.Option{
		mission.WithConfig(config),
		mission.WithLogger(logging.Nop()),
		mission.WithAgent("echo", agent.Echo()),
		mission.WithDefinitionFsOptions(&embedFS),
		mission.WithDefinitionBaseURL("embed:///testdata"),
	}, options...)
	srv, err := mission.New(options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	ctx := context.Background()
	_, err = srv.Runtime().LoadRules(ctx, "rules")
	require.NoError(t, err)
	return srv
}

// launchMission loads the launch definition with draft input overridden
func launchMission(t *testing.T, srv *mission.Service, draft document.Document) *amission.Mission {
	aMission, err := srv.Runtime().LoadMission(context.Background(), "launch")
	require.NoError(t, err)
	if draft != nil {
		aMission.LookupTask("draft").Input = draft
	}
	return aMission
}

func TestService_AutoApproved(t *testing.T) {
	srv := newService(t, testConfig())
	runtime := srv.Runtime()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, runtime.Start(ctx))
	defer func() { _ = runtime.Shutdown(context.Background()) }()

	submitted, err := runtime.Submit(ctx, launchMission(t, srv, nil))
	require.NoError(t, err)
	actual, err := runtime.WaitForMission(ctx, submitted.ID, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, amission.StatusComplete, actual.Status)

	draft := actual.LookupTask("draft")
	require.NotEmpty(t, draft.ApprovalID)
	request, err := runtime.Request(ctx, draft.ApprovalID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusAutoApproved, request.Status)
	assert.Equal(t, "quality", request.RuleID)
	assert.Equal(t, "Go generics explained", draft.Output["body"])
	assert.Empty(t, actual.LookupTask("publish").ApprovalID)

	completed, ok := actual.Results.Lookup("progress.complete")
	require.True(t, ok)
	count, _ := document.AsFloat(completed)
	assert.EqualValues(t, 3, count)
}

func TestService_HumanReview(t *testing.T) {
	srv := newService(t, testConfig())
	runtime := srv.Runtime()
	ctx := context.Background()

	submitted, err := runtime.Submit(ctx, launchMission(t, srv, document.Document{"body": "rough notes", "score": 0.4}))
	require.NoError(t, err)
	actual, err := runtime.Run(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, amission.StatusInProgress, actual.Status)
	assert.Equal(t, amission.TaskInProgress, actual.LookupTask("draft").Status)
	assert.Equal(t, amission.TaskQueued, actual.LookupTask("publish").Status)
	assert.Equal(t, 1, runtime.Progress(submitted.ID).AwaitingReview)

	pending, err := runtime.PendingRequests(ctx, approval.WithMissionID(submitted.ID))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "draft", pending[0].TaskID)

	edited := document.Document{"body": "polished article", "score": 0.8}
	request, err := runtime.Resolve(ctx, pending[0].ID, approval.Approve(edited))
	require.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, request.Status)

	actual, err = runtime.WaitForMission(ctx, submitted.ID, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, amission.StatusComplete, actual.Status)
	assert.Equal(t, "polished article", actual.LookupTask("draft").Output["body"])

	_, err = runtime.Resolve(ctx, pending[0].ID, approval.Reject("too late"))
	assert.ErrorIs(t, err, approval.ErrAlreadyResolved)
}

func TestService_Rejected(t *testing.T) {
	srv := newService(t, testConfig())
	runtime := srv.Runtime()
	ctx := context.Background()

	submitted, err := runtime.Submit(ctx, launchMission(t, srv, document.Document{"body": "forbidden claims", "score": 0.99}))
	require.NoError(t, err)
	actual, err := runtime.Run(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, amission.StatusFailed, actual.Status)
	assert.Equal(t, amission.ReasonContentRejected, actual.Reason)
	assert.Equal(t, amission.ReasonContentRejected, actual.LookupTask("draft").Reason)
	publish := actual.LookupTask("publish")
	assert.Equal(t, amission.TaskFailed, publish.Status)
	assert.Equal(t, amission.ReasonUpstreamFailure, publish.Reason)
}

func TestService_Cancel(t *testing.T) {
	started := make(chan struct{}, 1)
	blocking := agent.Func(func(ctx context.Context, agentType, taskType string, input document.Document) (document.Document, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return nil, ctx.Err()
	})
	config := testConfig()
	config.Executor.Timeout = 10 * time.Second
	srv := newService(t, config, mission.WithAgent("blocking", blocking))
	runtime := srv.Runtime()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, runtime.Start(ctx))
	defer func() { _ = runtime.Shutdown(context.Background()) }()

	aMission := amission.New("", "acme", "never ends", amission.PriorityNormal,
		amission.NewTask("wait", "blocking", "wait", nil),
		amission.NewTask("after", "echo", "after", nil, "wait"))
	submitted, err := runtime.Submit(ctx, aMission)
	require.NoError(t, err)
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("agent was not invoked")
	}
	require.NoError(t, runtime.Cancel(ctx, submitted.ID))

	actual, err := runtime.WaitForMission(ctx, submitted.ID, time.Second)
	require.NoError(t, err)
	assert.Equal(t, amission.StatusCancelled, actual.Status)
	for _, task := range actual.Tasks {
		assert.Equal(t, amission.TaskCancelled, task.Status, task.ID)
	}
}

func TestService_Stores(t *testing.T) {
	var testCases = []struct {
		description string
		kind        string
	}{
		{description: "fs", kind: mission.StoreFS},
		{description: "sqlite", kind: mission.StoreSQLite},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			config := testConfig()
			config.Store.Kind = testCase.kind
			config.Store.URL = filepath.Join(t.TempDir(), "store")
			if testCase.kind == mission.StoreSQLite {
				config.Store.URL += ".db"
			}
			srv := newService(t, config)
			runtime := srv.Runtime()
			ctx := context.Background()

			submitted, err := runtime.Submit(ctx, launchMission(t, srv, nil))
			require.NoError(t, err)
			actual, err := runtime.Run(ctx, submitted.ID)
			require.NoError(t, err)
			assert.Equal(t, amission.StatusComplete, actual.Status)

			missions, err := runtime.Missions(ctx, amission.StatusComplete)
			require.NoError(t, err)
			assert.Len(t, missions, 1)
			rules, err := runtime.Rules(ctx, "acme", "echo")
			require.NoError(t, err)
			require.Len(t, rules, 2)
			assert.Equal(t, "banned", rules[0].ID)
		})
	}
}

func TestRuntime_SaveRuleReplaces(t *testing.T) {
	srv := newService(t, testConfig())
	runtime := srv.Runtime()
	ctx := context.Background()

	rules, err := runtime.LoadRules(ctx, "rules")
	require.NoError(t, err, "reloading a rule set replaces rules")
	require.Len(t, rules, 2)
	actual, err := runtime.Rules(ctx, "acme", "")
	require.NoError(t, err)
	assert.Len(t, actual, 2)

	_, err = runtime.LoadRules(ctx, "missing")
	assert.Error(t, err)
}
