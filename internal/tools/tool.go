package tools

import (
	"context"

	"dexter/pkg/errors"
)

// Result is the uniform envelope every tool returns. Source names where
// the payload actually came from (e.g. "postgres", "cache").
type Result struct {
	Payload map[string]interface{} `json:"payload"`
	Source  string                 `json:"source"`
}

// Tool represents a callable data-fetch capability exposed to the agent.
type Tool interface {
	// Name returns the unique tool identifier.
	Name() string
	// Description returns a short human-readable summary.
	Description() string
	// Schema declares the tool's typed argument schema.
	Schema() ArgSchema
	// Execute performs the tool's action using the provided arguments.
	Execute(ctx context.Context, args map[string]interface{}) (*Result, error)
}

// HandlerFunc is the function signature for tool handlers.
type HandlerFunc func(ctx context.Context, args map[string]interface{}) (*Result, error)

// FunctionTool is a simple Tool implementation backed by a handler function.
type FunctionTool struct {
	name        string
	description string
	schema      ArgSchema
	handler     HandlerFunc
}

// New creates a new function-backed Tool.
func New(name, description string, schema ArgSchema, handler HandlerFunc) Tool {
	return &FunctionTool{
		name:        name,
		description: description,
		schema:      schema,
		handler:     handler,
	}
}

// Name returns the tool identifier.
func (t *FunctionTool) Name() string { return t.name }

// Description returns a human description of the tool.
func (t *FunctionTool) Description() string { return t.description }

// Schema returns the declared argument schema.
func (t *FunctionTool) Schema() ArgSchema { return t.schema }

// Execute runs the underlying handler.
func (t *FunctionTool) Execute(ctx context.Context, args map[string]interface{}) (*Result, error) {
	if t.handler == nil {
		return nil, errors.New("tool handler is not defined")
	}

	return t.handler(ctx, args)
}
