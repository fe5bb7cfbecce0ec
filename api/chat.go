package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/koopa0/flightgpt/internal/agent"
	"github.com/koopa0/flightgpt/internal/log"
	"github.com/koopa0/flightgpt/internal/web/sse"
)

// Invoker drives one non-streaming chat turn.
// Satisfied by *agent.Pipeline.
type Invoker interface {
	Invoke(ctx context.Context, messages []agent.ChatMessage) (string, error)
}

// Streamer drives one streaming chat turn, emitting classified steps.
// Satisfied by *agent.Observer.
type Streamer interface {
	SendMessage(ctx context.Context, messages []agent.ChatMessage, emit func(agent.StreamStep) error) (string, error)
}

// MessageStore persists conversation history.
// Satisfied by *store.Store.
type MessageStore interface {
	InsertMessage(ctx context.Context, userID, role, content string) (uuid.UUID, error)
}

// ChatHandler handles chat-related HTTP endpoints.
//
// Endpoints:
//   - POST /api/chat        - Synchronous chat (JSON request/response)
//   - POST /api/chat/stream - Streaming chat (SSE - Server-Sent Events)
type ChatHandler struct {
	invoker  Invoker
	streamer Streamer
	store    MessageStore
	logger   log.Logger
	limiter  *rate.Limiter
}

// ChatConfig contains configuration for the ChatHandler.
type ChatConfig struct {
	Invoker  Invoker
	Streamer Streamer
	Store    MessageStore  // Optional: nil disables persistence
	Logger   log.Logger    // Required
	Limiter  *rate.Limiter // Optional: nil uses the default 10 req/s, burst 30
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(cfg ChatConfig) *ChatHandler {
	if cfg.Logger == nil {
		panic("NewChatHandler: logger is required")
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}
	return &ChatHandler{
		invoker:  cfg.Invoker,
		streamer: cfg.Streamer,
		store:    cfg.Store,
		logger:   cfg.Logger,
		limiter:  limiter,
	}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.handleChat)
	mux.HandleFunc("POST /api/chat/stream", h.handleStream)
}

// ChatRequest is the body of both chat endpoints. UserID is optional; when
// present the user message and the assistant's answer are persisted.
type ChatRequest struct {
	UserID   string              `json:"userId,omitempty"`
	Messages []agent.ChatMessage `json:"messages"`
}

// ChatResponse is the success body of POST /api/chat.
type ChatResponse struct {
	Content string `json:"content"`
}

// handleChat runs one synchronous chat turn.
// Returns 200 {content} on success or 500 {error} on any agent failure.
func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}
	if !h.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	ctx := r.Context()
	h.persistUserMessage(ctx, req)

	content, err := h.invoker.Invoke(ctx, req.Messages)
	if err != nil {
		h.logger.Error("chat invocation failed", "error", err, "user_id", req.UserID)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.persistAssistantMessage(ctx, req.UserID, content)
	writeJSON(w, http.StatusOK, ChatResponse{Content: content})
}

// handleStream runs one streaming chat turn over SSE.
//
// Event types:
//   - step:  one classified trace step (agent.StreamStep JSON)
//   - done:  final response {"content": "..."}
//   - error: {"code": "...", "message": "..."}
func (h *ChatHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	writer, err := sse.NewWriter(w)
	if err != nil {
		h.logger.Error("streaming not supported")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeStreamError(writer, "INVALID_REQUEST", fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.Messages) == 0 {
		h.writeStreamError(writer, "EMPTY_MESSAGES", "messages must not be empty")
		return
	}
	if !h.limiter.Allow() {
		h.writeStreamError(writer, "RATE_LIMITED", "rate limit exceeded")
		return
	}

	ctx := r.Context()
	h.persistUserMessage(ctx, req)
	h.logger.Info("SSE stream started", "user_id", req.UserID)

	content, err := h.streamer.SendMessage(ctx, req.Messages, func(step agent.StreamStep) error {
		return writer.WriteEvent(ctx, "step", step)
	})
	if err != nil {
		h.logger.Error("stream failed", "error", err, "user_id", req.UserID)
		h.writeStreamError(writer, "STREAM_ERROR", err.Error())
		return
	}

	h.persistAssistantMessage(ctx, req.UserID, content)

	if err := writer.WriteEvent(ctx, "done", ChatResponse{Content: content}); err != nil {
		h.logger.Warn("writing done event", "error", err)
	}
	h.logger.Info("SSE stream completed", "user_id", req.UserID, "responseLen", len(content))
}

func (h *ChatHandler) writeStreamError(writer *sse.Writer, code, message string) {
	if err := writer.WriteError(code, message); err != nil {
		h.logger.Warn("writing SSE error event", "error", err)
	}
}

// persistUserMessage stores the latest user message when persistence is
// configured and the request names a user. Failures are logged, not fatal:
// history is a convenience, the chat turn still runs.
func (h *ChatHandler) persistUserMessage(ctx context.Context, req ChatRequest) {
	if h.store == nil || req.UserID == "" {
		return
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != agent.RoleUser && last.Role != "" {
		return
	}
	if _, err := h.store.InsertMessage(ctx, req.UserID, agent.RoleUser, last.Text()); err != nil {
		h.logger.Warn("persisting user message", "error", err, "user_id", req.UserID)
	}
}

// persistAssistantMessage stores the assistant's answer. Only called on
// success: a failed invocation must leave no assistant record behind.
func (h *ChatHandler) persistAssistantMessage(ctx context.Context, userID, content string) {
	if h.store == nil || userID == "" {
		return
	}
	if _, err := h.store.InsertMessage(ctx, userID, agent.RoleAssistant, content); err != nil {
		h.logger.Warn("persisting assistant message", "error", err, "user_id", userID)
	}
}
