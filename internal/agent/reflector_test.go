package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReflector_ProceedsWhenAllSucceeded(t *testing.T) {
	r := NewReflector(NewPlanner())
	u := understandingFor(IntentQuote, map[string]string{"ticker": "NVDA"})

	plan := &Plan{Tasks: []*Task{newTask(toolGetQuote, nil)}}
	results := []ToolResult{{ToolName: toolGetQuote, Success: true}}

	assert.Equal(t, DecisionProceed, r.Reflect(u, plan, results))
}

func TestReflector_ReplansOnFirstFailure(t *testing.T) {
	r := NewReflector(NewPlanner())
	u := understandingFor(IntentQuote, map[string]string{"ticker": "NVDA"})

	plan := &Plan{Tasks: []*Task{newTask(toolGetQuote, nil)}}
	results := []ToolResult{{ToolName: toolGetQuote, Success: false, Error: "timeout"}}

	assert.Equal(t, DecisionReplan, r.Reflect(u, plan, results))
}

func TestReflector_NeverReplansTwice(t *testing.T) {
	r := NewReflector(NewPlanner())
	u := understandingFor(IntentQuote, map[string]string{"ticker": "NVDA"})

	plan := &Plan{Tasks: []*Task{newTask(toolSearchStocks, nil)}, Revision: 1}
	results := []ToolResult{{ToolName: toolSearchStocks, Success: false, Error: "down"}}

	assert.Equal(t, DecisionProceed, r.Reflect(u, plan, results))
}

func TestReflector_ProceedsWithoutAlternate(t *testing.T) {
	r := NewReflector(NewPlanner())
	// No ticker and no query text: nothing a re-plan could do differently.
	u := understandingFor(IntentSearch, map[string]string{})

	plan := &Plan{Tasks: []*Task{newTask(toolSearchStocks, nil)}}
	results := []ToolResult{{ToolName: toolSearchStocks, Success: false, Error: "down"}}

	assert.Equal(t, DecisionProceed, r.Reflect(u, plan, results))
}
