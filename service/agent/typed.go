package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/mission/model/document"
	"github.com/viant/structology/conv"
)

var converter = newConverter()

func newConverter() *conv.Converter {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	return conv.NewConverter(options)
}

// Typed adapts a strongly typed agent function to Invoker. Input documents
// are converted to I; output O is encoded back to a document.
func Typed[I, O any](fn func(ctx context.Context, taskType string, input *I) (*O, error)) Invoker {
	return Func(func(ctx context.Context, agentType, taskType string, input document.Document) (document.Document, error) {
		in := new(I)
		if len(input) > 0 {
			if err := converter.Convert(map[string]interface{}(input), in); err != nil {
				return nil, fmt.Errorf("failed to convert %v input: %w", agentType, err)
			}
		}
		out, err := fn(ctx, taskType, in)
		if err != nil {
			return nil, err
		}
		return toDocument(out)
	})
}

func toDocument(value interface{}) (document.Document, error) {
	if value == nil {
		return document.Document{}, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode agent output: %w", err)
	}
	ret := document.Document{}
	if err = json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("agent output is not an object: %w", err)
	}
	return ret, nil
}
