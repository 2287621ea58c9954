package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/docconnect-ai/internal/conversation"
	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

const historyLimit = 100

// Handler runs chat turns over a websocket.
type Handler struct {
	replier         conversation.Replier
	chatLog         conversation.ChatLog
	persistUserTurn bool
	logger          *logging.Logger

	mu       sync.RWMutex
	sessions map[string]int // sessionID -> open connections
}

// InboundMessage is what the browser sends.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what we send to the browser.
type OutboundMessage struct {
	Type      string           `json:"type"` // "message", "typing", "history", "session", "error", "pong"
	Text      string           `json:"text,omitempty"`
	Role      string           `json:"role,omitempty"` // "assistant" or "user"
	SessionID string           `json:"session_id,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Messages  []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is a simplified message for history responses.
type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewHandler creates a websocket chat handler. chatLog may be nil, in which
// case history frames are skipped.
func NewHandler(replier conversation.Replier, chatLog conversation.ChatLog, persistUserTurn bool, logger *logging.Logger) *Handler {
	if replier == nil {
		panic("webchat: replier required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		replier:         replier,
		chatLog:         chatLog,
		persistUserTurn: persistUserTurn && chatLog != nil,
		logger:          logger,
		sessions:        make(map[string]int),
	}
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// ActiveSessions reports how many sessions have an open socket.
func (h *Handler) ActiveSessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// HandleWebSocket handles GET /chatbot-ai/ws.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})

	if history, err := h.history(ctx, sessionID); err != nil {
		h.logger.Warn("webchat: failed to load history", "session_id", sessionID, "error", err)
	} else if len(history) > 0 {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: history})
	}

	h.track(sessionID, 1)
	defer h.track(sessionID, -1)

	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		switch msg.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
		case "message":
			if strings.TrimSpace(msg.Text) == "" {
				continue
			}
			_ = websocket.JSON.Send(conn, h.processMessage(ctx, conn, sessionID, msg.Text))
		}
	}
}

// processMessage runs one turn. Turns on a connection are sequential.
func (h *Handler) processMessage(ctx context.Context, conn *websocket.Conn, sessionID, text string) OutboundMessage {
	if h.persistUserTurn {
		if err := h.chatLog.Append(ctx, sessionID, conversation.SenderUser, text); err != nil {
			h.logger.Error("webchat: failed to persist user message", "session_id", sessionID, "error", err)
		}
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "typing"})

	resp, err := h.replier.Reply(ctx, conversation.TurnRequest{
		SessionID: sessionID,
		Messages:  []conversation.IncomingMessage{{Role: conversation.ChatRoleUser, Content: text}},
	})
	if err != nil {
		h.logger.Error("webchat: turn failed", "session_id", sessionID, "error", err)
		errText := "Sorry, something went wrong. Please try again."
		if errors.Is(err, conversation.ErrInvalidTurn) {
			errText = "Please type a message."
		}
		return OutboundMessage{Type: "error", Text: errText}
	}
	return OutboundMessage{
		Type:      "message",
		Role:      "assistant",
		Text:      resp.Response,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func (h *Handler) track(sessionID string, delta int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[sessionID] += delta
	if h.sessions[sessionID] <= 0 {
		delete(h.sessions, sessionID)
	}
}

func (h *Handler) history(ctx context.Context, sessionID string) ([]HistoryMessage, error) {
	if h.chatLog == nil {
		return nil, nil
	}
	msgs, err := h.chatLog.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(msgs) > historyLimit {
		msgs = msgs[len(msgs)-historyLimit:]
	}
	history := make([]HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		role := "assistant"
		if m.Sender == conversation.SenderUser {
			role = "user"
		}
		history = append(history, HistoryMessage{
			Role:      role,
			Text:      m.Content,
			Timestamp: m.Timestamp.Format(time.RFC3339),
		})
	}
	return history, nil
}

// HandleHistory handles GET /chatbot-ai/history?session=<id>.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	history, err := h.history(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("webchat: failed to load history", "error", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []HistoryMessage{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"messages": history})
}
