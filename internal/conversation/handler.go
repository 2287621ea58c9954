package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

const unavailableMessage = "The assistant is temporarily unavailable."

// Replier produces the bot reply for one turn.
type Replier interface {
	Reply(ctx context.Context, req TurnRequest) (*TurnResponse, error)
}

// Handler wires HTTP requests to the orchestrator.
type Handler struct {
	replier         Replier
	chatLog         ChatLog
	persistUserTurn bool
	logger          *logging.Logger
}

// NewHandler creates a chat handler. When persistUserTurn is set the user's
// message is written to the chat log before the orchestrator runs.
func NewHandler(replier Replier, chatLog ChatLog, persistUserTurn bool, logger *logging.Logger) *Handler {
	if replier == nil {
		panic("conversation: replier required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		replier:         replier,
		chatLog:         chatLog,
		persistUserTurn: persistUserTurn && chatLog != nil,
		logger:          logger,
	}
}

// Chat handles POST /chatbot-ai.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode chat request", "error", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": strings.TrimPrefix(err.Error(), "conversation: ")})
		return
	}

	if h.persistUserTurn {
		if err := h.chatLog.Append(r.Context(), req.SessionID, SenderUser, req.LastUtterance()); err != nil {
			h.logger.Error("failed to persist user message", "session_id", req.SessionID, "error", err)
		}
	}

	resp, err := h.replier.Reply(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidTurn) {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": strings.TrimPrefix(err.Error(), "conversation: ")})
			return
		}
		h.logger.Error("chat turn failed", "session_id", req.SessionID, "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": unavailableMessage})
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
