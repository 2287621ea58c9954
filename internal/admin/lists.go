package admin

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
)

// BookingRow is one appointment in the admin bookings list.
type BookingRow struct {
	ID              string `json:"id"`
	DoctorID        string `json:"doctor_id"`
	DoctorName      string `json:"doctor_name,omitempty"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Gender          string `json:"gender"`
	Age             int    `json:"age"`
	ReasonForVisit  string `json:"reason_for_visit"`
	CreatedAt       string `json:"created_at"`
}

// BookingsListResponse is a page of bookings.
type BookingsListResponse struct {
	Bookings []BookingRow `json:"bookings"`
	Total    int          `json:"total"`
	page
}

// ListBookings returns bookings newest first.
// GET /admin/bookings?limit=&offset=&doctor_id=
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	doctorID := r.URL.Query().Get("doctor_id")
	ctx := r.Context()

	var total int
	if err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE ($1 = '' OR doctor_id = $1)`, doctorID,
	).Scan(&total); err != nil {
		h.logger.Error("admin: count bookings", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT b.id::text, b.doctor_id, COALESCE(d.name, ''), b.appointment_date, b.appointment_time,
		       b.full_name, b.email, b.phone, b.gender, b.age, b.reason_for_visit, b.created_at
		FROM bookings b
		LEFT JOIN doctors d ON d.id = b.doctor_id
		WHERE ($1 = '' OR b.doctor_id = $1)
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3`, doctorID, p.Limit, p.Offset)
	if err != nil {
		h.logger.Error("admin: query bookings", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	defer rows.Close()

	out := []BookingRow{}
	for rows.Next() {
		var b BookingRow
		var date, created time.Time
		if err := rows.Scan(&b.ID, &b.DoctorID, &b.DoctorName, &date, &b.AppointmentTime,
			&b.FullName, &b.Email, &b.Phone, &b.Gender, &b.Age, &b.ReasonForVisit, &created); err != nil {
			h.logger.Error("admin: scan booking", "error", err)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		b.AppointmentDate = date.Format("2006-01-02")
		b.CreatedAt = created.UTC().Format(time.RFC3339)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		h.logger.Error("admin: iterate bookings", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, BookingsListResponse{Bookings: out, Total: total, page: p})
}

// AttendanceRow is one recorded attendance event.
type AttendanceRow struct {
	ID              string   `json:"id"`
	DoctorID        string   `json:"doctor_id"`
	DoctorName      string   `json:"doctor_name,omitempty"`
	EventType       string   `json:"event_type"`
	CameraLocation  *string  `json:"camera_location,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	CreatedAt       string   `json:"created_at"`
}

// ListAttendance returns attendance events newest first.
// GET /admin/attendance?limit=&offset=
func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT a.id::text, a.doctor_id, COALESCE(d.name, ''), a.event_type, a.camera_location, a.confidence_score, a.created_at
		FROM doctor_attendance a
		LEFT JOIN doctors d ON d.id = a.doctor_id
		ORDER BY a.created_at DESC
		LIMIT $1 OFFSET $2`, p.Limit, p.Offset)
	if err != nil {
		h.logger.Error("admin: query attendance", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	defer rows.Close()

	out := []AttendanceRow{}
	for rows.Next() {
		var a AttendanceRow
		var location sql.NullString
		var score sql.NullFloat64
		var created time.Time
		if err := rows.Scan(&a.ID, &a.DoctorID, &a.DoctorName, &a.EventType, &location, &score, &created); err != nil {
			h.logger.Error("admin: scan attendance", "error", err)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if location.Valid {
			a.CameraLocation = &location.String
		}
		if score.Valid {
			a.ConfidenceScore = &score.Float64
		}
		a.CreatedAt = created.UTC().Format(time.RFC3339)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		h.logger.Error("admin: iterate attendance", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"attendance": out, "limit": p.Limit, "offset": p.Offset})
}

// InquiryRow is one contact-form submission.
type InquiryRow struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// ListInquiries returns patient inquiries newest first.
// GET /admin/inquiries?limit=&offset=
func (h *Handler) ListInquiries(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id::text, full_name, email, COALESCE(phone, ''), COALESCE(subject, ''), message, created_at
		FROM patient_inquiries
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, p.Limit, p.Offset)
	if err != nil {
		h.logger.Error("admin: query inquiries", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	defer rows.Close()

	out := []InquiryRow{}
	for rows.Next() {
		var q InquiryRow
		var created time.Time
		if err := rows.Scan(&q.ID, &q.FullName, &q.Email, &q.Phone, &q.Subject, &q.Message, &created); err != nil {
			h.logger.Error("admin: scan inquiry", "error", err)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		q.CreatedAt = created.UTC().Format(time.RFC3339)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		h.logger.Error("admin: iterate inquiries", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"inquiries": out, "limit": p.Limit, "offset": p.Offset})
}

// DoctorRow is the admin view of a doctor profile.
type DoctorRow struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Specialization  string   `json:"specialization"`
	Qualifications  []string `json:"qualifications"`
	Languages       []string `json:"languages"`
	Experience      int      `json:"experience"`
	ConsultationFee float64  `json:"consultation_fee"`
	RealtimeStatus  string   `json:"realtime_status,omitempty"`
	Bookings        int      `json:"bookings"`
}

// ListDoctors returns every doctor with their booking count.
// GET /admin/doctors
func (h *Handler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT d.id, d.name, d.specialization, d.qualifications, d.languages, d.experience,
		       d.consultation_fee, COALESCE(d.realtime_status, ''),
		       (SELECT COUNT(*) FROM bookings b WHERE b.doctor_id = d.id)
		FROM doctors d
		ORDER BY d.name ASC`)
	if err != nil {
		h.logger.Error("admin: query doctors", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	defer rows.Close()

	out := []DoctorRow{}
	for rows.Next() {
		var d DoctorRow
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialization, pq.Array(&d.Qualifications), pq.Array(&d.Languages),
			&d.Experience, &d.ConsultationFee, &d.RealtimeStatus, &d.Bookings); err != nil {
			h.logger.Error("admin: scan doctor", "error", err)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		h.logger.Error("admin: iterate doctors", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"doctors": out, "total": len(out)})
}

// SessionMessage is one stored chatbot line.
type SessionMessage struct {
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// SessionMessages returns a chat session transcript oldest first.
// GET /admin/sessions/{sessionID}/messages
func (h *Handler) SessionMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "sessionID required")
		return
	}
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT sender, message_content, timestamp
		FROM chatbot_messages
		WHERE session_id = $1
		ORDER BY timestamp ASC`, sessionID)
	if err != nil {
		h.logger.Error("admin: query session messages", "session_id", sessionID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	defer rows.Close()

	out := []SessionMessage{}
	for rows.Next() {
		var m SessionMessage
		var ts time.Time
		if err := rows.Scan(&m.Sender, &m.Content, &ts); err != nil {
			h.logger.Error("admin: scan session message", "error", err)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		m.Timestamp = ts.UTC().Format(time.RFC3339)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		h.logger.Error("admin: iterate session messages", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "messages": out})
}
