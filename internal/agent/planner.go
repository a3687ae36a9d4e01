package agent

import (
	"github.com/google/uuid"

	"dexter/pkg/logger"
)

// Tool names the planner binds tasks to.
const (
	toolGetQuote        = "get_quote"
	toolGetFundamentals = "get_fundamentals"
	toolGetStatements   = "get_financial_statements"
	toolSearchStocks    = "search_stocks"
)

// alternateTools maps a failed tool to the fallback mapping a re-plan
// may try. A tool with no entry cannot be re-planned.
var alternateTools = map[string]string{
	toolGetQuote:        toolSearchStocks,
	toolGetFundamentals: toolSearchStocks,
	toolGetStatements:   toolGetFundamentals,
}

// Planner deterministically converts an understanding into an ordered
// task list, each task bound to exactly one registered tool.
type Planner struct {
	log *logger.Logger
}

// NewPlanner creates a planner.
func NewPlanner() *Planner {
	return &Planner{log: logger.Get().With("component", "planner")}
}

// Plan maps intent and entities to tasks. When a query plausibly maps to
// several tools the planner issues all of them as parallel tasks; an
// extra tool call is cheaper than a missed answer.
func (p *Planner) Plan(u Understanding) *Plan {
	ticker := u.Ticker()
	query := u.Entities["query"]

	var tasks []*Task

	switch u.Intent {
	case IntentQuote:
		if ticker == "" {
			tasks = append(tasks, newTask(toolSearchStocks, map[string]interface{}{"query": query}))
			break
		}
		tasks = append(tasks, newTask(toolGetQuote, map[string]interface{}{"ticker": ticker}))

	case IntentFundamentals:
		if ticker == "" {
			tasks = append(tasks, newTask(toolSearchStocks, map[string]interface{}{"query": query}))
			break
		}
		tasks = append(tasks, newTask(toolGetFundamentals, map[string]interface{}{"ticker": ticker}))

	case IntentStatement:
		if ticker == "" {
			tasks = append(tasks, newTask(toolSearchStocks, map[string]interface{}{"query": query}))
			break
		}
		tasks = append(tasks, newTask(toolGetStatements, map[string]interface{}{"ticker": ticker, "period": "annual"}))

	case IntentSearch:
		tasks = append(tasks, newTask(toolSearchStocks, map[string]interface{}{"query": query}))

	default: // IntentGeneric
		if ticker != "" {
			// Both quote and fundamentals qualify; run both in parallel.
			tasks = append(tasks,
				newTask(toolGetQuote, map[string]interface{}{"ticker": ticker}),
				newTask(toolGetFundamentals, map[string]interface{}{"ticker": ticker}),
			)
		} else {
			tasks = append(tasks, newTask(toolSearchStocks, map[string]interface{}{"query": query}))
		}
	}

	p.log.Debugf("Planned %d task(s) for intent=%s", len(tasks), u.Intent)

	return &Plan{Tasks: tasks, Revision: 0}
}

// Replan builds a revised plan covering only the failed tasks, remapping
// each to its alternate tool. The revision counter increments; the
// orchestrator caps how far it may go.
func (p *Planner) Replan(u Understanding, prev *Plan, results []ToolResult) *Plan {
	failed := failedResults(results)

	var tasks []*Task
	seen := map[string]bool{}

	for _, r := range failed {
		alt, ok := alternateTools[r.ToolName]
		if !ok || seen[alt] {
			continue
		}
		seen[alt] = true

		args := map[string]interface{}{}
		switch alt {
		case toolSearchStocks:
			q := u.Ticker()
			if q == "" {
				q = u.Entities["query"]
			}
			args["query"] = q
		default:
			args["ticker"] = u.Ticker()
		}

		tasks = append(tasks, newTask(alt, args))
	}

	p.log.Infof("Re-planned %d task(s) after %d failure(s), revision %d",
		len(tasks), len(failed), prev.Revision+1)

	return &Plan{Tasks: tasks, Revision: prev.Revision + 1}
}

// HasAlternate reports whether any failed result can be remapped to a
// different tool given what the understanding knows.
func (p *Planner) HasAlternate(u Understanding, results []ToolResult) bool {
	for _, r := range failedResults(results) {
		alt, ok := alternateTools[r.ToolName]
		if !ok {
			continue
		}
		if alt == toolSearchStocks {
			if u.Ticker() != "" || u.Entities["query"] != "" {
				return true
			}
			continue
		}
		if u.Ticker() != "" {
			return true
		}
	}
	return false
}

func failedResults(results []ToolResult) []ToolResult {
	var failed []ToolResult
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

func newTask(tool string, args map[string]interface{}) *Task {
	return &Task{
		ID:       uuid.NewString(),
		ToolName: tool,
		Args:     args,
		Status:   TaskPending,
	}
}
