package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func understandingFor(intent Intent, entities map[string]string) Understanding {
	if entities == nil {
		entities = map[string]string{}
	}
	return Understanding{Intent: intent, Entities: entities}
}

func TestPlanner_QuoteIntent(t *testing.T) {
	p := NewPlanner()

	plan := p.Plan(understandingFor(IntentQuote, map[string]string{"ticker": "NVDA"}))

	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, toolGetQuote, plan.Tasks[0].ToolName)
	assert.Equal(t, "NVDA", plan.Tasks[0].Args["ticker"])
	assert.Equal(t, 0, plan.Revision)
	assert.Equal(t, TaskPending, plan.Tasks[0].Status)
}

func TestPlanner_MissingTickerFallsBackToSearch(t *testing.T) {
	p := NewPlanner()

	plan := p.Plan(understandingFor(IntentQuote, map[string]string{"query": "price of that chip company"}))

	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, toolSearchStocks, plan.Tasks[0].ToolName)
	assert.Equal(t, "price of that chip company", plan.Tasks[0].Args["query"])
}

func TestPlanner_GenericWithTickerRunsBoth(t *testing.T) {
	p := NewPlanner()

	plan := p.Plan(understandingFor(IntentGeneric, map[string]string{"ticker": "AAPL"}))

	require.Len(t, plan.Tasks, 2)
	names := []string{plan.Tasks[0].ToolName, plan.Tasks[1].ToolName}
	assert.Contains(t, names, toolGetQuote)
	assert.Contains(t, names, toolGetFundamentals)
}

func TestPlanner_UniqueTaskIDs(t *testing.T) {
	p := NewPlanner()

	plan := p.Plan(understandingFor(IntentGeneric, map[string]string{"ticker": "AAPL"}))

	require.Len(t, plan.Tasks, 2)
	assert.NotEqual(t, plan.Tasks[0].ID, plan.Tasks[1].ID)
}

func TestPlanner_ReplanRemapsFailedOnly(t *testing.T) {
	p := NewPlanner()
	u := understandingFor(IntentGeneric, map[string]string{"ticker": "AAPL", "query": "tell me about AAPL"})

	prev := p.Plan(u)
	results := []ToolResult{
		{TaskID: prev.Tasks[0].ID, ToolName: toolGetQuote, Success: false, Error: "timeout"},
		{TaskID: prev.Tasks[1].ID, ToolName: toolGetFundamentals, Success: true},
	}

	revised := p.Replan(u, prev, results)

	assert.Equal(t, 1, revised.Revision)
	require.Len(t, revised.Tasks, 1)
	assert.Equal(t, toolSearchStocks, revised.Tasks[0].ToolName)
}

func TestPlanner_ReplanDeduplicatesAlternates(t *testing.T) {
	p := NewPlanner()
	u := understandingFor(IntentGeneric, map[string]string{"ticker": "AAPL"})

	prev := &Plan{Tasks: []*Task{
		newTask(toolGetQuote, map[string]interface{}{"ticker": "AAPL"}),
		newTask(toolGetFundamentals, map[string]interface{}{"ticker": "AAPL"}),
	}}
	results := []ToolResult{
		{ToolName: toolGetQuote, Success: false, Error: "down"},
		{ToolName: toolGetFundamentals, Success: false, Error: "down"},
	}

	// Both alternates resolve to search_stocks; only one task is issued.
	revised := p.Replan(u, prev, results)

	require.Len(t, revised.Tasks, 1)
	assert.Equal(t, toolSearchStocks, revised.Tasks[0].ToolName)
}

func TestPlanner_HasAlternate(t *testing.T) {
	p := NewPlanner()

	withTicker := understandingFor(IntentQuote, map[string]string{"ticker": "AAPL"})
	noEntities := understandingFor(IntentSearch, map[string]string{})

	failedQuote := []ToolResult{{ToolName: toolGetQuote, Success: false}}
	failedSearch := []ToolResult{{ToolName: toolSearchStocks, Success: false}}

	assert.True(t, p.HasAlternate(withTicker, failedQuote))
	assert.False(t, p.HasAlternate(noEntities, failedQuote))
	// search_stocks has no alternate mapping at all.
	assert.False(t, p.HasAlternate(withTicker, failedSearch))
}
