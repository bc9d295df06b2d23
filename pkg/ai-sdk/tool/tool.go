package tool

import (
	"context"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
)

type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args string) (string, error)
}

type FuncTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args string) (string, error)
}

func (t *FuncTool) Name() string {
	return t.name
}

func (t *FuncTool) Description() string {
	return t.description
}

func (t *FuncTool) Parameters() map[string]any {
	return t.parameters
}

func (t *FuncTool) Execute(ctx context.Context, args string) (string, error) {
	return t.fn(ctx, args)
}

func Define(name, description string, parameters map[string]any, fn func(ctx context.Context, args string) (string, error)) Tool {
	return &FuncTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

func ToTypesTool(t Tool) types.Tool {
	return types.Tool{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}
}

// ObjectSchema builds a JSON schema for a flat object of the given properties
func ObjectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}
