package agent

// EventType discriminates the typed events a session emits.
type EventType string

const (
	EventPhase         EventType = "phase"
	EventUnderstanding EventType = "understanding"
	EventPlan          EventType = "plan"
	EventToolResult    EventType = "tool-result"
	EventAnswerChunk   EventType = "answer-chunk"
	EventError         EventType = "error"
)

// Phase names the five pipeline stages as they appear on the wire.
type Phase string

const (
	PhaseUnderstand Phase = "understand"
	PhasePlan       Phase = "plan"
	PhaseExecute    Phase = "execute"
	PhaseReflect    Phase = "reflect"
	PhaseAnswer     Phase = "answer"
)

// Event is one element of a session's ordered event stream.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

func phaseEvent(p Phase) Event {
	return Event{Type: EventPhase, Data: string(p)}
}

func understandingEvent(u Understanding) Event {
	return Event{Type: EventUnderstanding, Data: u}
}

func planEvent(p *Plan) Event {
	return Event{Type: EventPlan, Data: map[string]interface{}{
		"tasks":    p.Tasks,
		"revision": p.Revision,
	}}
}

func toolResultEvent(r ToolResult) Event {
	return Event{Type: EventToolResult, Data: r}
}

func answerChunkEvent(text string) Event {
	return Event{Type: EventAnswerChunk, Data: text}
}

func errorEvent(message string) Event {
	return Event{Type: EventError, Data: map[string]string{"message": message}}
}
