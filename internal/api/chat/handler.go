package chat

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"dexter/internal/adapters/ai"
	"dexter/internal/agent"
	"dexter/internal/metrics"
	"dexter/pkg/errors"
	"dexter/pkg/logger"
)

// doneSentinel terminates every successfully streamed session.
const doneSentinel = "[DONE]"

// callerHeader identifies the caller for quota and entitlement checks.
// Unauthenticated deployments fall back to the remote address.
const callerHeader = "X-Caller-ID"

// Handler serves the chat endpoints.
type Handler struct {
	orchestrator *agent.Orchestrator
	models       *ai.Registry
	defaultModel string
	log          *logger.Logger
}

// New creates a chat handler.
func New(orchestrator *agent.Orchestrator, models *ai.Registry, defaultModel string) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		models:       models,
		defaultModel: defaultModel,
		log:          logger.Get().With("component", "chat_handler"),
	}
}

// chatRequest is the POST /chat body.
type chatRequest struct {
	Query  string `json:"query"`
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

// chatResponse is the buffered (stream=false) response envelope.
type chatResponse struct {
	Answer    string `json:"answer"`
	Remaining int    `json:"remaining"`
	Error     string `json:"error,omitempty"`
}

// ServeHTTP dispatches GET (model discovery) and POST (chat).
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleModels(w, r)
	case http.MethodPost:
		h.handleChat(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleModels returns the model catalog for capability discovery plus
// the caller's quota left in the current window.
func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"models":    h.models.Descriptors(),
		"remaining": h.orchestrator.RemainingQuota(r.Context(), callerID(r)),
	})
}

// handleChat admits a query and serves it buffered or streamed.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RequestRejected("invalid_body")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Model == "" {
		req.Model = h.defaultModel
	}

	q := agent.Query{
		ID:       uuid.New(),
		Text:     req.Query,
		ModelID:  req.Model,
		Stream:   req.Stream,
		CallerID: callerID(r),
	}

	session, err := h.orchestrator.Run(r.Context(), q)
	if err != nil {
		status, reason := admissionStatus(err)
		metrics.RequestRejected(reason)
		h.log.Infof("Rejected query from %s: %v", q.CallerID, err)

		if status == http.StatusTooManyRequests {
			writeJSON(w, status, chatResponse{Remaining: 0, Error: err.Error()})
			return
		}
		writeError(w, status, err.Error())
		return
	}

	if req.Stream {
		h.streamSession(w, session)
		return
	}
	h.bufferSession(w, session)
}

// bufferSession drains the session and replies with the full answer.
func (h *Handler) bufferSession(w http.ResponseWriter, s *agent.Session) {
	var errMessage string
	for ev := range s.Events() {
		if ev.Type == agent.EventError {
			if data, ok := ev.Data.(map[string]string); ok {
				errMessage = data["message"]
			}
		}
	}

	resp := chatResponse{
		Answer:    s.Answer(),
		Remaining: s.Remaining(),
		Error:     errMessage,
	}

	status := http.StatusOK
	if s.State() == agent.StateFailed {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

// streamSession writes the session's events as newline-delimited JSON.
// A completed session is terminated by the [DONE] sentinel; a failed
// session ends on its terminal error event instead.
func (h *Handler) streamSession(w http.ResponseWriter, s *agent.Session) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	for ev := range s.Events() {
		if err := enc.Encode(ev); err != nil {
			h.log.Warnf("Client gone during stream of query %s: %v", s.Query.ID, err)
			// Drain so the session goroutine can finish.
			for range s.Events() {
			}
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if s.State() != agent.StateFailed {
		w.Write([]byte(doneSentinel + "\n"))
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// admissionStatus maps an admission error to an HTTP status and a
// rejection-metric reason.
func admissionStatus(err error) (int, string) {
	switch {
	case errors.Is(err, errors.ErrEmptyQuery):
		return http.StatusBadRequest, "empty_query"
	case errors.Is(err, errors.ErrModelUnknown):
		return http.StatusBadRequest, "unknown_model"
	case errors.Is(err, errors.ErrEntitlement):
		return http.StatusForbidden, "entitlement"
	case errors.Is(err, errors.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func callerID(r *http.Request) string {
	if id := r.Header.Get(callerHeader); id != "" {
		return id
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
