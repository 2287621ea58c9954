package notify

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

// SendRequest is the body of POST /send-booking-confirmation.
type SendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Handler exposes the email sender over HTTP.
type Handler struct {
	email  EmailSender
	logger *logging.Logger
}

// NewHandler creates a notification handler.
func NewHandler(email EmailSender, logger *logging.Logger) *Handler {
	if email == nil {
		panic("notify: email sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{email: email, logger: logger}
}

// SendBookingConfirmation handles POST /send-booking-confirmation.
func (h *Handler) SendBookingConfirmation(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.To) == "" || strings.TrimSpace(req.Subject) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields: to, subject"})
		return
	}

	err := h.email.Send(r.Context(), EmailMessage{
		To:      strings.TrimSpace(req.To),
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		h.logger.Error("failed to send booking confirmation", "to", req.To, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to send email."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email sent."})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
