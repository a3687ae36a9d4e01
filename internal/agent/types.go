package agent

import (
	"time"

	"github.com/google/uuid"
)

// Intent is the closed set of question categories the extractor produces.
type Intent string

const (
	IntentQuote        Intent = "quote"
	IntentFundamentals Intent = "fundamentals"
	IntentStatement    Intent = "financial-statement"
	IntentSearch       Intent = "search"
	IntentGeneric      Intent = "generic"
)

// Query is one accepted chat request. Immutable once accepted.
type Query struct {
	ID       uuid.UUID `json:"id"`
	Text     string    `json:"text"`
	ModelID  string    `json:"modelId"`
	Stream   bool      `json:"stream"`
	CallerID string    `json:"callerId"`
}

// Understanding is the normalized intent plus structured entities
// extracted from the query text. Read-only after extraction.
type Understanding struct {
	Intent   Intent            `json:"intent"`
	Entities map[string]string `json:"entities"`
}

// Ticker returns the extracted ticker entity, if any.
func (u Understanding) Ticker() string {
	return u.Entities["ticker"]
}

// TaskStatus tracks a task through its lifecycle. Succeeded and failed
// are terminal; a task never transitions backward.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
)

// Task is a single planned invocation of one tool with concrete arguments.
// Tasks are mutated only by the executor.
type Task struct {
	ID       string                 `json:"id"`
	ToolName string                 `json:"tool"`
	Args     map[string]interface{} `json:"args"`
	Status   TaskStatus             `json:"status"`
}

// Plan owns an ordered sequence of tasks. Revision is incremented only by
// a bounded re-plan.
type Plan struct {
	Tasks    []*Task `json:"tasks"`
	Revision int     `json:"revision"`
}

// ToolResult is the immutable outcome envelope of executing one task.
type ToolResult struct {
	TaskID   string                 `json:"taskId"`
	ToolName string                 `json:"tool"`
	Success  bool                   `json:"success"`
	Source   string                 `json:"source,omitempty"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// Decision is the reflector's verdict after an execution round.
type Decision string

const (
	DecisionProceed Decision = "proceed"
	DecisionReplan  Decision = "replan"
)

// SessionEvent is the telemetry record published when a session ends.
type SessionEvent struct {
	QueryID      string        `json:"queryId"`
	CallerID     string        `json:"callerId"`
	ModelID      string        `json:"modelId"`
	Intent       string        `json:"intent"`
	Replans      int           `json:"replans"`
	ToolCalls    int           `json:"toolCalls"`
	ToolFailures int           `json:"toolFailures"`
	TokensUsed   int           `json:"tokensUsed"`
	Duration     time.Duration `json:"durationNs"`
	Status       string        `json:"status"` // "done" or "failed"
}
