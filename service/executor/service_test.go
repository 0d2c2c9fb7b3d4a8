package executor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mission/model/document"
	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/service/agent"
)

func TestService_Execute(t *testing.T) {
	registry := agent.NewRegistry()
	registry.Register("echo", agent.Echo())
	registry.RegisterFunc("broken", func(ctx context.Context, agentType, taskType string, input document.Document) (document.Document, error) {
		return nil, errors.New("model unavailable")
	})
	registry.RegisterFunc("slow", func(ctx context.Context, agentType, taskType string, input document.Document) (document.Document, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	registry.RegisterFunc("stuck", func(ctx context.Context, agentType, taskType string, input document.Document) (document.Document, error) {
		time.Sleep(200 * time.Millisecond)
		return document.Document{}, nil
	})
	registry.RegisterFunc("panic", func(ctx context.Context, agentType, taskType string, input document.Document) (document.Document, error) {
		panic("boom")
	})

	config := DefaultConfig()
	config.Timeout = 30 * time.Millisecond
	var attempts int32
	srv := New(registry, WithConfig(config), WithListener(func(task *mission.Task, outcome *Outcome) {
		atomic.AddInt32(&attempts, 1)
	}))

	var testCases = []struct {
		description string
		agentType   string
		expectErr   error
		expectOut   document.Document
		reason      string
	}{
		{description: "success", agentType: "echo", expectOut: document.Document{"body": "text"}},
		{description: "agent error", agentType: "broken", expectErr: ErrAgentFailure, reason: "model unavailable"},
		{description: "cooperative timeout", agentType: "slow", expectErr: ErrTimeout, reason: mission.ReasonTimeout},
		{description: "non cooperative timeout", agentType: "stuck", expectErr: ErrTimeout, reason: mission.ReasonTimeout},
		{description: "panic", agentType: "panic", expectErr: ErrAgentFailure},
		{description: "unknown agent", agentType: "none", expectErr: ErrAgentFailure},
	}
	for _, testCase := range testCases {
		task := mission.NewTask("t1", testCase.agentType, "draft", document.Document{"body": "text"})
		outcome := srv.Execute(context.Background(), task)
		if testCase.expectErr != nil {
			assert.False(t, outcome.Success(), testCase.description)
			assert.True(t, errors.Is(outcome.Err, testCase.expectErr), testCase.description)
			if testCase.reason != "" {
				assert.Equal(t, testCase.reason, outcome.Reason, testCase.description)
			}
			continue
		}
		require.True(t, outcome.Success(), testCase.description)
		assert.EqualValues(t, testCase.expectOut, outcome.Output, testCase.description)
	}
	assert.EqualValues(t, len(testCases), atomic.LoadInt32(&attempts))
}

func TestService_ExecuteCancelled(t *testing.T) {
	srv := New(agent.Echo())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcome := srv.Execute(ctx, mission.NewTask("t1", "echo", "draft", nil))
	assert.True(t, errors.Is(outcome.Err, ErrCancelled))
}

func TestConfig_ShouldRetry(t *testing.T) {
	var testCases = []struct {
		description string
		config      *Config
		attempts    int
		retry       bool
		delay       time.Duration
	}{
		{description: "first failure", config: DefaultConfig(), attempts: 1, retry: true, delay: 200 * time.Millisecond},
		{description: "second failure doubles", config: DefaultConfig(), attempts: 2, retry: true, delay: 400 * time.Millisecond},
		{description: "max attempts", config: DefaultConfig(), attempts: 3, retry: false},
		{description: "capped", config: &Config{MaxAttempts: 10, BaseDelay: time.Second, Multiplier: 10, MaxDelay: 5 * time.Second}, attempts: 4, retry: true, delay: 5 * time.Second},
		{description: "fixed", config: &Config{MaxAttempts: 5, Backoff: BackoffFixed, BaseDelay: time.Second}, attempts: 3, retry: true, delay: time.Second},
		{description: "none retries immediately", config: &Config{MaxAttempts: 5, Backoff: BackoffNone, BaseDelay: time.Second}, attempts: 1, retry: true},
		{description: "none honours max attempts", config: &Config{MaxAttempts: 2, Backoff: BackoffNone}, attempts: 2, retry: false},
	}
	for _, testCase := range testCases {
		retry, delay := testCase.config.ShouldRetry(testCase.attempts)
		assert.Equal(t, testCase.retry, retry, testCase.description)
		assert.Equal(t, testCase.delay, delay, testCase.description)
	}
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, (&Config{Timeout: time.Second}).Validate())
}
