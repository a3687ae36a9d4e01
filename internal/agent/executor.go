package agent

import (
	"context"
	"sync"
	"time"

	"dexter/internal/metrics"
	"dexter/internal/tools"
	"dexter/pkg/errors"
	"dexter/pkg/logger"
)

// Executor runs a plan's tasks against the tool registry. Independent
// tasks run concurrently up to a fixed fan-out; the executor waits for
// every dispatched task to reach a terminal status before returning.
type Executor struct {
	registry    *tools.Registry
	fanout      int
	toolTimeout time.Duration
	log         *logger.Logger
}

// NewExecutor creates an executor bound to a tool registry.
func NewExecutor(registry *tools.Registry, fanout int, toolTimeout time.Duration) *Executor {
	if fanout <= 0 {
		fanout = 4
	}
	if toolTimeout <= 0 {
		toolTimeout = 10 * time.Second
	}
	return &Executor{
		registry:    registry,
		fanout:      fanout,
		toolTimeout: toolTimeout,
		log:         logger.Get().With("component", "executor"),
	}
}

// Execute runs all tasks and returns one result per task, in task order.
// emit, when non-nil, is called as each result becomes available. Tool
// failures are recorded in results, never raised; sibling tasks continue.
func (e *Executor) Execute(ctx context.Context, plan *Plan, u Understanding, emit func(ToolResult)) []ToolResult {
	results := make([]ToolResult, len(plan.Tasks))

	var wg sync.WaitGroup
	var emitMu sync.Mutex
	sem := make(chan struct{}, e.fanout)

	started := time.Now()

	for i, task := range plan.Tasks {
		wg.Add(1)
		go func(idx int, t *Task) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			result := e.runTask(ctx, t, u)
			results[idx] = result

			if emit != nil {
				emitMu.Lock()
				emit(result)
				emitMu.Unlock()
			}
		}(i, task)
	}

	// Join barrier: reflect only sees a complete round.
	wg.Wait()

	e.log.Infof("Executed %d task(s) in %v (revision %d)",
		len(plan.Tasks), time.Since(started), plan.Revision)

	return results
}

// runTask validates, repairs and dispatches a single task.
func (e *Executor) runTask(ctx context.Context, task *Task, u Understanding) ToolResult {
	tool, ok := e.registry.Get(task.ToolName)
	if !ok {
		task.Status = TaskFailed
		return ToolResult{
			TaskID:   task.ID,
			ToolName: task.ToolName,
			Success:  false,
			Error:    errors.Wrapf(errors.ErrToolNotFound, "%s", task.ToolName).Error(),
		}
	}

	repairArgs(task, tool.Schema(), u)

	if err := tool.Schema().Validate(task.Args); err != nil {
		task.Status = TaskFailed
		e.log.Warnf("Task %s failed validation: %v", task.ToolName, err)
		return ToolResult{
			TaskID:   task.ID,
			ToolName: task.ToolName,
			Success:  false,
			Error:    err.Error(),
		}
	}

	task.Status = TaskRunning

	toolCtx, cancel := context.WithTimeout(ctx, e.toolTimeout)
	defer cancel()

	callStarted := time.Now()
	res, err := tool.Execute(toolCtx, task.Args)
	metrics.ToolLatency.WithLabelValues(task.ToolName).Observe(time.Since(callStarted).Seconds())
	if err != nil {
		task.Status = TaskFailed
		if toolCtx.Err() == context.DeadlineExceeded {
			err = errors.Wrapf(errors.ErrToolTimeout, "%s after %v", task.ToolName, e.toolTimeout)
		}
		e.log.Warnf("Task %s failed: %v", task.ToolName, err)
		return ToolResult{
			TaskID:   task.ID,
			ToolName: task.ToolName,
			Success:  false,
			Error:    err.Error(),
		}
	}

	task.Status = TaskSucceeded
	return ToolResult{
		TaskID:   task.ID,
		ToolName: task.ToolName,
		Success:  true,
		Source:   res.Source,
		Payload:  res.Payload,
	}
}

// repairArgs injects required arguments that are missing but derivable
// from the understanding's entities. This runs even when the planner
// already had the chance to populate them.
func repairArgs(task *Task, schema tools.ArgSchema, u Understanding) {
	if task.Args == nil {
		task.Args = make(map[string]interface{})
	}

	for _, name := range schema.MissingRequired(task.Args) {
		switch name {
		case "ticker":
			if t := u.Ticker(); t != "" {
				task.Args["ticker"] = t
			}
		case "query":
			if q := u.Entities["query"]; q != "" {
				task.Args["query"] = q
			} else if t := u.Ticker(); t != "" {
				task.Args["query"] = t
			}
		}
	}
}
