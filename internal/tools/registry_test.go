package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubTool(name string) Tool {
	return New(name, "stub", ArgSchema{}, func(context.Context, map[string]interface{}) (*Result, error) {
		return &Result{Payload: map[string]interface{}{}, Source: "postgres"}, nil
	})
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(stubTool("get_quote"))

	tool, ok := r.Get("get_quote")
	require.True(t, ok)
	assert.Equal(t, "get_quote", tool.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_ListIsSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(stubTool("search_stocks"))
	r.Register(stubTool("get_quote"))
	r.Register(stubTool("get_fundamentals"))

	assert.Equal(t, []string{"get_fundamentals", "get_quote", "search_stocks"}, r.List())
}

func TestRegistry_ReRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register(stubTool("get_quote"))
	r.Register(New("get_quote", "replacement", ArgSchema{}, nil))

	tool, ok := r.Get("get_quote")
	require.True(t, ok)
	assert.Equal(t, "replacement", tool.Description())
}
