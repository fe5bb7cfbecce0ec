package api

import (
	"context"
	"net/http"

	"github.com/koopa0/flightgpt/internal/log"
	"github.com/koopa0/flightgpt/internal/store"
)

// MessageLister reads conversation history, newest first.
// Satisfied by *store.Store.
type MessageLister interface {
	List(ctx context.Context, userID string) ([]store.Message, error)
}

// MessagesHandler handles the message history endpoint.
type MessagesHandler struct {
	store  MessageLister
	logger log.Logger
}

// NewMessagesHandler creates a new messages handler.
func NewMessagesHandler(store MessageLister, logger log.Logger) *MessagesHandler {
	return &MessagesHandler{store: store, logger: logger}
}

// RegisterRoutes registers message routes on the given mux.
func (h *MessagesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/messages", h.list)
}

// list returns the persisted messages for a user, newest first.
// The UI reverses the order for newest-last display.
func (h *MessagesHandler) list(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	messages, err := h.store.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list messages", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	if messages == nil {
		messages = []store.Message{}
	}

	writeJSON(w, http.StatusOK, messages)
}
