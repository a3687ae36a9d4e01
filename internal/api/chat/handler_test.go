package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexter/internal/adapters/ai"
	"dexter/internal/adapters/config"
	"dexter/internal/agent"
	"dexter/internal/metrics"
	"dexter/internal/ratelimit"
	"dexter/internal/telemetry"
	"dexter/internal/tools"
)

type stubGenerator struct{ text string }

func (g *stubGenerator) Name() string { return "stub" }

func (g *stubGenerator) Generate(context.Context, ai.GenerateRequest) (string, *ai.Usage, error) {
	return g.text, &ai.Usage{TotalTokens: 3}, nil
}

func (g *stubGenerator) GenerateStream(context.Context, ai.GenerateRequest) (<-chan ai.Chunk, <-chan error) {
	chunks := make(chan ai.Chunk, 1)
	errCh := make(chan error, 1)
	chunks <- ai.Chunk{Text: g.text, Usage: &ai.Usage{TotalTokens: 3}}
	close(chunks)
	close(errCh)
	return chunks, errCh
}

func newTestHandler(rateLimit int) *Handler {
	reg := tools.NewRegistry()
	reg.Register(tools.New("get_quote", "stub quote", tools.ArgSchema{
		Fields: []tools.ArgField{{Name: "ticker", Type: "string", Required: true}},
	}, func(_ context.Context, args map[string]interface{}) (*tools.Result, error) {
		return &tools.Result{
			Payload: map[string]interface{}{"ticker": args["ticker"], "price": 100.0},
			Source:  "postgres",
		}, nil
	}))
	return newHandlerWith(rateLimit, reg)
}

func newHandlerWith(rateLimit int, reg *tools.Registry) *Handler {
	gen := &stubGenerator{text: "NVDA trades at $100."}

	models := ai.NewRegistry()
	models.Register(ai.ModelDescriptor{
		ID: "test-model", Provider: "stub", Tier: ai.TierFree, SupportsStreaming: true,
	}, "stub-v1", gen)
	models.Register(ai.ModelDescriptor{
		ID: "pro-model", Provider: "stub", Tier: ai.TierPro, SupportsStreaming: true,
	}, "stub-v1-pro", gen)

	cfg := config.ChatConfig{
		MaxReplans:     1,
		ToolFanout:     4,
		ToolTimeout:    time.Second,
		SessionTimeout: 5 * time.Second,
		RateLimit:      rateLimit,
		RateWindow:     time.Hour,
	}

	planner := agent.NewPlanner()
	orchestrator := agent.NewOrchestrator(
		agent.NewExtractor(),
		planner,
		agent.NewExecutor(reg, cfg.ToolFanout, cfg.ToolTimeout),
		agent.NewReflector(planner),
		agent.NewSynthesizer(),
		models,
		ai.NewEntitlements([]string{"pro-caller"}),
		ratelimit.NewMemoryCounter(cfg.RateLimit, cfg.RateWindow),
		telemetry.NoopSink{},
		cfg,
	)

	return New(orchestrator, models, "test-model")
}

func postChat(h *Handler, body map[string]interface{}, caller string) *httptest.ResponseRecorder {
	encoded, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(encoded))
	req.Header.Set(callerHeader, caller)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ModelDiscovery(t *testing.T) {
	h := newTestHandler(10)

	getModels := func() (map[string]ai.ModelDescriptor, int) {
		req := httptest.NewRequest(http.MethodGet, "/chat", nil)
		req.Header.Set(callerHeader, "alice")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Models    map[string]ai.ModelDescriptor `json:"models"`
			Remaining int                           `json:"remaining"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp.Models, resp.Remaining
	}

	models, remaining := getModels()
	assert.Contains(t, models, "test-model")
	assert.Contains(t, models, "pro-model")
	assert.Equal(t, ai.TierPro, models["pro-model"].Tier)
	assert.Equal(t, 10, remaining)

	// Discovery reports quota without consuming it; a chat does consume.
	postChat(h, map[string]interface{}{"query": "price of NVDA"}, "alice")
	_, remaining = getModels()
	assert.Equal(t, 9, remaining)
}

func TestHandler_BufferedChat(t *testing.T) {
	h := newTestHandler(10)

	rec := postChat(h, map[string]interface{}{"query": "price of NVDA", "stream": false}, "alice")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NVDA trades at $100.", resp.Answer)
	assert.Equal(t, 9, resp.Remaining)
	assert.Empty(t, resp.Error)
}

func TestHandler_StreamedChat(t *testing.T) {
	h := newTestHandler(10)

	rec := postChat(h, map[string]interface{}{"query": "price of NVDA", "stream": true}, "alice")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Greater(t, len(lines), 1)
	assert.Equal(t, doneSentinel, lines[len(lines)-1])

	// Every line except the sentinel is a typed event; phases arrive in
	// pipeline order and answer chunks follow execution.
	var types []string
	var phases []string
	for _, line := range lines[:len(lines)-1] {
		var ev struct {
			Type string      `json:"type"`
			Data interface{} `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &ev), "line: %s", line)
		types = append(types, ev.Type)
		if ev.Type == "phase" {
			phases = append(phases, ev.Data.(string))
		}
	}

	assert.Equal(t, []string{"understand", "plan", "execute", "reflect", "answer"}, phases)
	assert.Contains(t, types, "understanding")
	assert.Contains(t, types, "plan")
	assert.Contains(t, types, "tool-result")
	assert.Contains(t, types, "answer-chunk")
	assert.NotContains(t, types, "error")
}

func TestHandler_EmptyQueryRejected(t *testing.T) {
	h := newTestHandler(10)

	rec := postChat(h, map[string]interface{}{"query": "  "}, "alice")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_UnknownModelRejected(t *testing.T) {
	h := newTestHandler(10)

	rec := postChat(h, map[string]interface{}{"query": "price of NVDA", "model": "bogus"}, "alice")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_EntitlementRejected(t *testing.T) {
	h := newTestHandler(10)

	rec := postChat(h, map[string]interface{}{"query": "price of NVDA", "model": "pro-model"}, "free-caller")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = postChat(h, map[string]interface{}{"query": "price of NVDA", "model": "pro-model"}, "pro-caller")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_RateLimited(t *testing.T) {
	h := newTestHandler(1)

	rec := postChat(h, map[string]interface{}{"query": "price of NVDA"}, "alice")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postChat(h, map[string]interface{}{"query": "price of NVDA"}, "alice")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Remaining)
	assert.NotEmpty(t, resp.Error)
}

func TestHandler_MalformedBodyRejected(t *testing.T) {
	h := newTestHandler(10)

	before := testutil.ToFloat64(metrics.RequestsRejected.WithLabelValues("invalid_body"))

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
	req.Header.Set(callerHeader, "alice")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RequestsRejected.WithLabelValues("invalid_body")))
}

func TestHandler_ClientDisconnectCancelsWork(t *testing.T) {
	// A dropped request context must reach the in-flight tool and the
	// session goroutine must still finish so nothing leaks.
	started := make(chan struct{})
	cancelled := make(chan struct{})

	reg := tools.NewRegistry()
	reg.Register(tools.New("get_quote", "blocks until cancelled", tools.ArgSchema{
		Fields: []tools.ArgField{{Name: "ticker", Type: "string", Required: true}},
	}, func(ctx context.Context, _ map[string]interface{}) (*tools.Result, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	}))

	h := newHandlerWith(10, reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	body, _ := json.Marshal(map[string]interface{}{"query": "price of NVDA", "stream": true})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body)).WithContext(ctx)
	req.Header.Set(callerHeader, "alice")
	rec := httptest.NewRecorder()

	served := make(chan struct{})
	go func() {
		h.ServeHTTP(rec, req)
		close(served)
	}()

	<-started
	dropped := time.Now()
	cancel()

	select {
	case <-cancelled:
		// Well inside the per-tool timeout, so this is the disconnect
		// propagating, not the timeout firing.
		assert.Less(t, time.Since(dropped), 500*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("tool context was not cancelled after disconnect")
	}

	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not finish after disconnect")
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(10)

	req := httptest.NewRequest(http.MethodDelete, "/chat", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
