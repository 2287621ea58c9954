package inquiries

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

// Handler handles HTTP requests for patient inquiries.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new inquiries handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /inquiries.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInquiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	inquiry, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if isValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create inquiry", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to submit inquiry.")
		return
	}

	h.logger.Info("inquiry created", "id", inquiry.ID, "subject", inquiry.Subject)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(inquiry)
}

func isValidation(err error) bool {
	return errors.Is(err, ErrInvalidName) || errors.Is(err, ErrInvalidEmail) || errors.Is(err, ErrEmptyMessage)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
