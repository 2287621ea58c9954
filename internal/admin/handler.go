package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/docconnect-ai/internal/archive"
	"github.com/wolfman30/docconnect-ai/internal/messaging"
	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

// Archiver writes a chat session to long-term storage.
type Archiver interface {
	Archive(ctx context.Context, sessionID string) (*archive.ManifestEntry, error)
}

// WhatsAppReader returns the stored WhatsApp thread for a number.
type WhatsAppReader interface {
	Conversation(ctx context.Context, number string, limit int) ([]messaging.StoredMessage, error)
}

// SessionCounter reports live websocket chat sessions.
type SessionCounter interface {
	ActiveSessions() int
}

// Handler serves the read-mostly admin panel API.
type Handler struct {
	db       *sql.DB
	archiver Archiver
	whatsapp WhatsAppReader
	sessions SessionCounter
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

// Option configures optional Handler dependencies.
type Option func(*Handler)

// WithArchiver enables POST /admin/sessions/{sessionID}/archive.
func WithArchiver(a Archiver) Option {
	return func(h *Handler) { h.archiver = a }
}

// WithWhatsApp enables GET /admin/whatsapp/{number}.
func WithWhatsApp(r WhatsAppReader) Option {
	return func(h *Handler) { h.whatsapp = r }
}

// WithSessionCounter adds live websocket sessions to the dashboard.
func WithSessionCounter(c SessionCounter) Option {
	return func(h *Handler) { h.sessions = c }
}

// WithGatherer overrides the Prometheus gatherer used by the dashboard.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) { h.gatherer = g }
}

// NewHandler creates an admin handler over db.
func NewHandler(db *sql.DB, logger *logging.Logger, opts ...Option) *Handler {
	if db == nil {
		panic("admin: db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	h := &Handler{db: db, gatherer: prometheus.DefaultGatherer, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers every admin endpoint on r. Authentication is applied by
// the caller.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
	r.Get("/bookings", h.ListBookings)
	r.Get("/attendance", h.ListAttendance)
	r.Get("/inquiries", h.ListInquiries)
	r.Get("/doctors", h.ListDoctors)
	r.Get("/sessions/{sessionID}/messages", h.SessionMessages)
	if h.archiver != nil {
		r.Post("/sessions/{sessionID}/archive", h.ArchiveSession)
	}
	if h.whatsapp != nil {
		r.Get("/whatsapp/{number}", h.WhatsAppConversation)
	}
}

// page holds limit/offset pagination parsed from the query string.
type page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func parsePage(r *http.Request) page {
	p := page{Limit: 50}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		p.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		p.Offset = v
	}
	return p
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("admin: failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
