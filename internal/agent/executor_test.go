package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexter/internal/tools"
	"dexter/pkg/errors"
)

func tickerSchema() tools.ArgSchema {
	return tools.ArgSchema{Fields: []tools.ArgField{
		{Name: "ticker", Type: "string", Required: true},
	}}
}

func okTool(name string, source string) tools.Tool {
	return tools.New(name, "test tool", tickerSchema(),
		func(_ context.Context, args map[string]interface{}) (*tools.Result, error) {
			return &tools.Result{
				Payload: map[string]interface{}{"ticker": args["ticker"]},
				Source:  source,
			}, nil
		})
}

func failingTool(name string) tools.Tool {
	return tools.New(name, "always fails", tickerSchema(),
		func(context.Context, map[string]interface{}) (*tools.Result, error) {
			return nil, errors.New("upstream unavailable")
		})
}

func TestExecutor_SuccessfulRound(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(okTool("get_quote", "postgres"))

	e := NewExecutor(reg, 4, time.Second)
	plan := &Plan{Tasks: []*Task{newTask("get_quote", map[string]interface{}{"ticker": "NVDA"})}}

	results := e.Execute(context.Background(), plan, Understanding{Entities: map[string]string{}}, nil)

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "postgres", results[0].Source)
	assert.Equal(t, TaskSucceeded, plan.Tasks[0].Status)
}

func TestExecutor_FailureDoesNotAbortSiblings(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(okTool("get_quote", "postgres"))
	reg.Register(failingTool("get_fundamentals"))

	e := NewExecutor(reg, 4, time.Second)
	plan := &Plan{Tasks: []*Task{
		newTask("get_quote", map[string]interface{}{"ticker": "NVDA"}),
		newTask("get_fundamentals", map[string]interface{}{"ticker": "NVDA"}),
	}}

	results := e.Execute(context.Background(), plan, Understanding{Entities: map[string]string{}}, nil)

	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "upstream unavailable")
	assert.Equal(t, TaskFailed, plan.Tasks[1].Status)
}

func TestExecutor_RepairsMissingTickerFromEntities(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(okTool("get_quote", "postgres"))

	e := NewExecutor(reg, 4, time.Second)
	// Planner left the required argument empty.
	plan := &Plan{Tasks: []*Task{newTask("get_quote", map[string]interface{}{})}}
	u := Understanding{Entities: map[string]string{"ticker": "TSLA"}}

	results := e.Execute(context.Background(), plan, u, nil)

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "TSLA", results[0].Payload["ticker"])
}

func TestExecutor_UnrepairableArgsFailValidation(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(okTool("get_quote", "postgres"))

	e := NewExecutor(reg, 4, time.Second)
	plan := &Plan{Tasks: []*Task{newTask("get_quote", map[string]interface{}{})}}

	// No ticker entity anywhere; repair cannot help.
	results := e.Execute(context.Background(), plan, Understanding{Entities: map[string]string{}}, nil)

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "missing required arguments")
	assert.Equal(t, TaskFailed, plan.Tasks[0].Status)
}

func TestExecutor_UnknownToolFails(t *testing.T) {
	e := NewExecutor(tools.NewRegistry(), 4, time.Second)
	plan := &Plan{Tasks: []*Task{newTask("no_such_tool", nil)}}

	results := e.Execute(context.Background(), plan, Understanding{Entities: map[string]string{}}, nil)

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "tool not found")
	assert.Contains(t, results[0].Error, "no_such_tool")
}

func TestExecutor_ToolTimeout(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(tools.New("get_quote", "hangs", tickerSchema(),
		func(ctx context.Context, _ map[string]interface{}) (*tools.Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}))

	e := NewExecutor(reg, 4, 20*time.Millisecond)
	plan := &Plan{Tasks: []*Task{newTask("get_quote", map[string]interface{}{"ticker": "NVDA"})}}

	results := e.Execute(context.Background(), plan, Understanding{Entities: map[string]string{}}, nil)

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "tool call timeout")
}

func TestExecutor_FanoutBound(t *testing.T) {
	var mu sync.Mutex
	running, peak := 0, 0

	reg := tools.NewRegistry()
	reg.Register(tools.New("get_quote", "counts concurrency", tickerSchema(),
		func(context.Context, map[string]interface{}) (*tools.Result, error) {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
			return &tools.Result{Payload: map[string]interface{}{}, Source: "postgres"}, nil
		}))

	e := NewExecutor(reg, 2, time.Second)

	var tasks []*Task
	for i := 0; i < 8; i++ {
		tasks = append(tasks, newTask("get_quote", map[string]interface{}{"ticker": "NVDA"}))
	}

	e.Execute(context.Background(), &Plan{Tasks: tasks}, Understanding{Entities: map[string]string{}}, nil)

	assert.LessOrEqual(t, peak, 2)
}

func TestExecutor_EmitCalledPerResult(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(okTool("get_quote", "postgres"))
	reg.Register(failingTool("get_fundamentals"))

	e := NewExecutor(reg, 4, time.Second)
	plan := &Plan{Tasks: []*Task{
		newTask("get_quote", map[string]interface{}{"ticker": "NVDA"}),
		newTask("get_fundamentals", map[string]interface{}{"ticker": "NVDA"}),
	}}

	var emitted []ToolResult
	e.Execute(context.Background(), plan, Understanding{Entities: map[string]string{}}, func(r ToolResult) {
		emitted = append(emitted, r)
	})

	assert.Len(t, emitted, 2)
}
