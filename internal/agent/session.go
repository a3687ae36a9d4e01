package agent

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"dexter/internal/adapters/ai"
	"dexter/internal/adapters/config"
	"dexter/internal/metrics"
	"dexter/internal/ratelimit"
	"dexter/pkg/errors"
	"dexter/pkg/logger"
)

// State is the session lifecycle position.
type State string

const (
	StateIdle          State = "idle"
	StateUnderstanding State = "understanding"
	StatePlanning      State = "planning"
	StateExecuting     State = "executing"
	StateReflecting    State = "reflecting"
	StateAnswering     State = "answering"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// allowedTransitions encodes the only legal state machine moves. Reflect
// may loop back to planning exactly as often as the re-plan bound allows;
// the bound itself is enforced by the orchestrator, not this table.
var allowedTransitions = map[State][]State{
	StateIdle:          {StateUnderstanding, StateFailed},
	StateUnderstanding: {StatePlanning, StateFailed},
	StatePlanning:      {StateExecuting, StateFailed},
	StateExecuting:     {StateReflecting, StateFailed},
	StateReflecting:    {StatePlanning, StateAnswering, StateFailed},
	StateAnswering:     {StateDone, StateFailed},
}

// TelemetrySink receives one record per finished session. Implementations
// must not block the session's critical path for long.
type TelemetrySink interface {
	PublishSession(ctx context.Context, ev SessionEvent)
}

// Session is one in-flight query moving through the pipeline. Events()
// yields the ordered event stream; the channel closes when the session
// reaches a terminal state.
type Session struct {
	Query Query

	state     State
	remaining int
	answer    strings.Builder
	events    chan Event
}

// Events returns the session's event stream.
func (s *Session) Events() <-chan Event {
	return s.events
}

// State returns the session's current state. Only meaningful to read
// after the event channel has closed.
func (s *Session) State() State {
	return s.state
}

// Remaining reports the caller's quota left after this session was
// admitted.
func (s *Session) Remaining() int {
	return s.remaining
}

// Answer returns the accumulated answer text. Only meaningful after the
// event channel has closed.
func (s *Session) Answer() string {
	return s.answer.String()
}

func (s *Session) emit(ev Event) {
	if ev.Type == EventAnswerChunk {
		if text, ok := ev.Data.(string); ok {
			s.answer.WriteString(text)
		}
	}
	s.events <- ev
}

// Orchestrator drives queries through understand, plan, execute, reflect
// and answer. It owns admission control and the re-plan bound; the phase
// components stay policy-free.
type Orchestrator struct {
	extractor    *Extractor
	planner      *Planner
	executor     *Executor
	reflector    *Reflector
	synthesizer  *Synthesizer
	models       *ai.Registry
	entitlements *ai.Entitlements
	quota        ratelimit.Counter
	telemetry    TelemetrySink
	cfg          config.ChatConfig
	log          *logger.Logger
}

// NewOrchestrator wires the pipeline components.
func NewOrchestrator(
	extractor *Extractor,
	planner *Planner,
	executor *Executor,
	reflector *Reflector,
	synthesizer *Synthesizer,
	models *ai.Registry,
	entitlements *ai.Entitlements,
	quota ratelimit.Counter,
	telemetry TelemetrySink,
	cfg config.ChatConfig,
) *Orchestrator {
	return &Orchestrator{
		extractor:    extractor,
		planner:      planner,
		executor:     executor,
		reflector:    reflector,
		synthesizer:  synthesizer,
		models:       models,
		entitlements: entitlements,
		quota:        quota,
		telemetry:    telemetry,
		cfg:          cfg,
		log:          logger.Get().With("component", "orchestrator"),
	}
}

// Run admits a query and starts its session. Admission failures (empty
// query, unknown model, entitlement, quota) are returned synchronously so
// the transport can map them to status codes before any event is written.
func (o *Orchestrator) Run(ctx context.Context, q Query) (*Session, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, errors.ErrEmptyQuery
	}
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}

	gen, providerModel, desc, err := o.models.Resolve(q.ModelID)
	if err != nil {
		return nil, err
	}

	tier := o.entitlements.TierFor(q.CallerID)
	if !o.entitlements.Allowed(tier, desc) {
		return nil, errors.Wrapf(errors.ErrEntitlement,
			"model %q requires tier %s, caller has %s", q.ModelID, desc.Tier, tier)
	}

	remaining, ok, err := o.quota.Acquire(ctx, q.CallerID)
	if err != nil {
		// Quota backend down: admit rather than refuse, but say so.
		o.log.Errorf("Quota check failed for caller %s, admitting: %v", q.CallerID, err)
		remaining, ok = -1, true
	}
	if !ok {
		return nil, errors.Wrapf(errors.ErrRateLimited, "caller %s", q.CallerID)
	}

	s := &Session{
		Query:     q,
		state:     StateIdle,
		remaining: remaining,
		events:    make(chan Event, 64),
	}

	metrics.SessionStarted(q.ModelID)

	go o.run(ctx, s, gen, providerModel)

	return s, nil
}

// RemainingQuota reports the caller's quota left in the current window
// without consuming any of it.
func (o *Orchestrator) RemainingQuota(ctx context.Context, callerID string) int {
	remaining, err := o.quota.Remaining(ctx, callerID)
	if err != nil {
		o.log.Errorf("Quota lookup failed for caller %s: %v", callerID, err)
		return -1
	}
	return remaining
}

// run executes the pipeline. It owns the event channel and always closes
// it, leaving the session in done or failed.
func (o *Orchestrator) run(ctx context.Context, s *Session, gen ai.Generator, providerModel string) {
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, o.cfg.SessionTimeout)
	defer cancel()

	var (
		u         Understanding
		replans   int
		toolCalls int
		tokens    int
		failures  int
	)

	defer func() {
		status := "done"
		if s.state == StateFailed {
			status = "failed"
		}
		metrics.SessionFinished(s.Query.ModelID, status, time.Since(started))
		metrics.TokensUsed(s.Query.ModelID, tokens)

		if o.telemetry != nil {
			o.telemetry.PublishSession(context.WithoutCancel(ctx), SessionEvent{
				QueryID:      s.Query.ID.String(),
				CallerID:     s.Query.CallerID,
				ModelID:      s.Query.ModelID,
				Intent:       string(u.Intent),
				Replans:      replans,
				ToolCalls:    toolCalls,
				ToolFailures: failures,
				TokensUsed:   tokens,
				Duration:     time.Since(started),
				Status:       status,
			})
		}

		// Closing the channel is the last step: consumers that observe
		// the close see the telemetry already published.
		close(s.events)
	}()

	// Understand.
	o.transition(s, StateUnderstanding)
	s.emit(phaseEvent(PhaseUnderstand))
	u = o.extractor.Understand(s.Query)
	s.emit(understandingEvent(u))

	// Plan / execute / reflect loop, bounded by the re-plan cap.
	plan := o.planner.Plan(u)
	var results []ToolResult

	for {
		o.transition(s, StatePlanning)
		s.emit(phaseEvent(PhasePlan))
		s.emit(planEvent(plan))

		o.transition(s, StateExecuting)
		s.emit(phaseEvent(PhaseExecute))

		round := o.executor.Execute(ctx, plan, u, func(r ToolResult) {
			metrics.ToolExecuted(r.ToolName, r.Success)
			s.emit(toolResultEvent(r))
		})
		toolCalls += len(round)
		results = mergeResults(results, round)

		o.transition(s, StateReflecting)
		s.emit(phaseEvent(PhaseReflect))

		if o.reflector.Reflect(u, plan, round) == DecisionReplan && replans < o.cfg.MaxReplans {
			replans++
			metrics.ReplanTriggered()
			plan = o.planner.Replan(u, plan, round)
			continue
		}
		break
	}

	failures = len(failedResults(results))

	if ctx.Err() != nil {
		o.failExpired(ctx, s)
		return
	}

	// Answer.
	o.transition(s, StateAnswering)
	s.emit(phaseEvent(PhaseAnswer))

	usedTokens, err := o.answer(ctx, s, gen, providerModel, u, results)
	tokens = usedTokens

	genStatus := "success"
	if err != nil {
		genStatus = "error"
	}
	metrics.GenerationCalls.WithLabelValues(gen.Name(), s.Query.ModelID, genStatus).Inc()

	if err != nil {
		if ctx.Err() != nil {
			o.failExpired(ctx, s)
			return
		}
		if failures < len(results) {
			// Data was gathered; degrade to a raw summary instead of failing.
			o.log.Warnf("Generation failed for query %s, serving fallback: %v", s.Query.ID, err)
			s.emit(answerChunkEvent(o.synthesizer.Fallback(u, results)))
			o.transition(s, StateDone)
			return
		}
		s.emit(errorEvent(errors.Wrap(errors.ErrGenerationUnavailable, err.Error()).Error()))
		o.transition(s, StateFailed)
		return
	}

	o.transition(s, StateDone)
}

// answer streams or buffers the model's response into answer-chunk events
// and returns the tokens consumed.
func (o *Orchestrator) answer(ctx context.Context, s *Session, gen ai.Generator, providerModel string, u Understanding, results []ToolResult) (int, error) {
	if !s.Query.Stream {
		text, usage, err := o.synthesizer.Generate(ctx, gen, providerModel, u, results)
		if err != nil {
			return 0, err
		}
		s.emit(answerChunkEvent(text))
		return totalTokens(usage), nil
	}

	chunks, errCh := o.synthesizer.Stream(ctx, gen, providerModel, u, results)

	tokens := 0
	emitted := false
	for chunk := range chunks {
		if chunk.Text != "" {
			s.emit(answerChunkEvent(chunk.Text))
			emitted = true
		}
		tokens += totalTokens(chunk.Usage)
	}

	if err := <-errCh; err != nil {
		if !emitted {
			return tokens, err
		}
		// Stream broke mid-answer; what was emitted stands.
		o.log.Warnf("Answer stream for query %s ended early: %v", s.Query.ID, err)
	}

	return tokens, nil
}

// failExpired terminates a session whose overall deadline passed or whose
// caller went away. The deadline wins over the degraded-answer path even
// when tool data was gathered.
func (o *Orchestrator) failExpired(ctx context.Context, s *Session) {
	cause := errors.Wrap(errors.ErrTimeout, "session deadline exceeded")
	if ctx.Err() == context.Canceled {
		cause = errors.New("session cancelled")
	}
	s.emit(errorEvent(cause.Error()))
	o.transition(s, StateFailed)
}

// transition moves the session state, panicking in tests via the log on
// an illegal move. An illegal transition is a programming error, not a
// runtime condition, so the session continues on the requested state.
func (o *Orchestrator) transition(s *Session, next State) {
	for _, allowed := range allowedTransitions[s.state] {
		if allowed == next {
			s.state = next
			return
		}
	}
	o.log.Errorf("Illegal state transition %s -> %s for query %s", s.state, next, s.Query.ID)
	s.state = next
}

// mergeResults folds a re-plan round into the accumulated results: prior
// successes are kept, prior failures are superseded by the new round.
func mergeResults(prev, round []ToolResult) []ToolResult {
	if len(prev) == 0 {
		return round
	}

	merged := make([]ToolResult, 0, len(prev)+len(round))
	for _, r := range prev {
		if r.Success {
			merged = append(merged, r)
		}
	}
	return append(merged, round...)
}

func totalTokens(u *ai.Usage) int {
	if u == nil {
		return 0
	}
	if u.TotalTokens > 0 {
		return u.TotalTokens
	}
	return u.PromptTokens + u.CompletionTokens
}
