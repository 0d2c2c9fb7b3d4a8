package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mission/model/document"
)

type draftInput struct {
	Topic string `json:"topic"`
	Words int    `json:"words"`
}

type draftOutput struct {
	Body  string  `json:"body"`
	Score float64 `json:"score"`
}

func TestRegistry_Invoke(t *testing.T) {
	registry := NewRegistry()
	registry.Register("echo", Echo())
	registry.Register("writer", Typed(func(ctx context.Context, taskType string, input *draftInput) (*draftOutput, error) {
		return &draftOutput{Body: strings.Repeat(input.Topic+" ", input.Words), Score: 0.9}, nil
	}))
	ctx := context.Background()

	var testCases = []struct {
		description string
		agentType   string
		input       document.Document
		expect      document.Document
		expectErr   error
	}{
		{
			description: "echo copies input",
			agentType:   "echo",
			input:       document.Document{"body": "hello"},
			expect:      document.Document{"body": "hello"},
		},
		{
			description: "typed converts input and output",
			agentType:   "writer",
			input:       document.Document{"topic": "go", "words": 2},
			expect:      document.Document{"body": "go go ", "score": 0.9},
		},
		{
			description: "unknown agent",
			agentType:   "missing",
			expectErr:   ErrUnknownAgent,
		},
	}
	for _, testCase := range testCases {
		output, err := registry.Invoke(ctx, testCase.agentType, "draft", testCase.input)
		if testCase.expectErr != nil {
			assert.True(t, errors.Is(err, testCase.expectErr), testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		assert.EqualValues(t, testCase.expect, output, testCase.description)
	}
	assert.EqualValues(t, []string{"echo", "writer"}, registry.Types())
}

func TestRegistry_Fallback(t *testing.T) {
	registry := NewRegistry()
	registry.SetFallback(Nop())
	output, err := registry.Invoke(context.Background(), "any", "draft", nil)
	require.NoError(t, err)
	assert.Empty(t, output)
}

func TestEcho_Isolation(t *testing.T) {
	input := document.Document{"body": "hello"}
	output, err := Echo().Invoke(context.Background(), "echo", "draft", input)
	require.NoError(t, err)
	output["body"] = "changed"
	assert.Equal(t, "hello", input["body"])
}
