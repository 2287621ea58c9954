package attendance

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

// Store persists attendance events.
type Store interface {
	Insert(ctx context.Context, req *RecordRequest) (*Record, error)
}

// DoctorLookup resolves the name shown in alerts.
type DoctorLookup interface {
	DoctorName(ctx context.Context, doctorID string) (string, error)
}

// Alerter delivers a staff notification, e.g. over WhatsApp.
type Alerter interface {
	SendAlert(ctx context.Context, body string) error
}

const alertTimeout = 10 * time.Second

// Handler handles attendance HTTP requests.
type Handler struct {
	store   Store
	doctors DoctorLookup
	alerter Alerter
	now     func() time.Time
	logger  *logging.Logger
}

// NewHandler creates an attendance handler. alerter may be nil, in which
// case notifications are skipped.
func NewHandler(store Store, doctors DoctorLookup, alerter Alerter, logger *logging.Logger) *Handler {
	if store == nil {
		panic("attendance: store required")
	}
	if doctors == nil {
		panic("attendance: doctor lookup required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, doctors: doctors, alerter: alerter, now: time.Now, logger: logger}
}

// Record handles POST /record-attendance.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode attendance request", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": MissingFieldsMessage})
		return
	}

	record, err := h.store.Insert(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to record attendance", "doctor_id", req.DoctorID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to record attendance."})
		return
	}
	h.logger.Info("attendance recorded", "doctor_id", req.DoctorID, "event_type", req.EventType)

	h.notify(r.Context(), record)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Attendance recorded successfully.",
		"data":    record,
	})
}

func (h *Handler) notify(ctx context.Context, record *Record) {
	if h.alerter == nil {
		h.logger.Warn("whatsapp alerts not configured, skipping notification", "doctor_id", record.DoctorID)
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
	defer cancel()

	name, err := h.doctors.DoctorName(ctx, record.DoctorID)
	if err != nil {
		h.logger.Warn("could not fetch doctor name", "doctor_id", record.DoctorID, "error", err)
		name = UnknownDoctorName
	}
	if err := h.alerter.SendAlert(ctx, AlertText(name, record.EventType, h.now())); err != nil {
		h.logger.Error("failed to send attendance alert", "doctor_id", record.DoctorID, "error", err)
		return
	}
	h.logger.Info("attendance alert sent", "doctor_id", record.DoctorID)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
