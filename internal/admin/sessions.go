package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/docconnect-ai/internal/archive"
	httpmiddleware "github.com/wolfman30/docconnect-ai/internal/http/middleware"
)

// ArchiveSession scrubs, labels and uploads a chat session to S3.
// POST /admin/sessions/{sessionID}/archive
func (h *Handler) ArchiveSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "sessionID required")
		return
	}
	if h.archiver == nil {
		h.writeError(w, http.StatusServiceUnavailable, "archive not configured")
		return
	}

	entry, err := h.archiver.Archive(r.Context(), sessionID)
	switch {
	case errors.Is(err, archive.ErrDisabled):
		h.writeError(w, http.StatusServiceUnavailable, "archive not configured")
		return
	case errors.Is(err, archive.ErrEmptySession):
		h.writeError(w, http.StatusNotFound, "session has no messages")
		return
	case err != nil:
		h.logger.Error("admin: archive session", "session_id", sessionID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.logger.Info("admin: session archived",
		"session_id", sessionID,
		"s3_key", entry.S3Key,
		"admin", httpmiddleware.AdminSubject(r.Context()),
	)
	h.writeJSON(w, http.StatusOK, entry)
}

// WhatsAppConversation returns stored inbound WhatsApp messages for a number.
// GET /admin/whatsapp/{number}?limit=
func (h *Handler) WhatsAppConversation(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if number == "" {
		h.writeError(w, http.StatusBadRequest, "number required")
		return
	}
	if h.whatsapp == nil {
		h.writeError(w, http.StatusServiceUnavailable, "whatsapp store not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	msgs, err := h.whatsapp.Conversation(r.Context(), number, limit)
	if err != nil {
		h.logger.Error("admin: whatsapp conversation", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"number": number, "messages": msgs})
}
