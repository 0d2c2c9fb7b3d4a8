package agent

import (
	"context"
	"errors"

	"github.com/viant/mission/model/document"
)

// ErrUnknownAgent is returned when no invoker is registered for an agent type
var ErrUnknownAgent = errors.New("agent: unknown agent type")

// Invoker produces task output for supplied input
type Invoker interface {
	Invoke(ctx context.Context, agentType, taskType string, input document.Document) (document.Document, error)
}

// Func adapts a function to Invoker
type Func func(ctx context.Context, agentType, taskType string, input document.Document) (document.Document, error)

// Invoke calls f
func (f Func) Invoke(ctx context.Context, agentType, taskType string, input document.Document) (document.Document, error) {
	return f(ctx, agentType, taskType, input)
}

// Echo returns a copy of the input as output
func Echo() Invoker {
	return Func(func(ctx context.Context, agentType, taskType string, input document.Document) (document.Document, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		output := input.Clone()
		if output == nil {
			output = document.Document{}
		}
		return output, nil
	})
}

// Nop returns an empty output
func Nop() Invoker {
	return Func(func(ctx context.Context, agentType, taskType string, input document.Document) (document.Document, error) {
		return document.Document{}, ctx.Err()
	})
}
