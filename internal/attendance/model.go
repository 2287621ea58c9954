package attendance

import (
	"errors"
	"strings"
	"time"
)

// ErrMissingFields is returned when doctor_id or event_type is absent.
var ErrMissingFields = errors.New("attendance: missing doctor_id or event_type")

// MissingFieldsMessage is the client-facing text for ErrMissingFields.
const MissingFieldsMessage = "Missing required fields: doctor_id, event_type"

// UnknownDoctorName is used in alerts when the doctor lookup fails.
const UnknownDoctorName = "Unknown Doctor"

// Record is one camera-detected attendance event.
type Record struct {
	ID              string    `json:"id"`
	DoctorID        string    `json:"doctor_id"`
	EventType       string    `json:"event_type"`
	CameraLocation  *string   `json:"camera_location"`
	ConfidenceScore *float64  `json:"confidence_score"`
	CreatedAt       time.Time `json:"created_at"`
}

// RecordRequest is the body of POST /record-attendance.
type RecordRequest struct {
	DoctorID        string   `json:"doctor_id"`
	EventType       string   `json:"event_type"`
	CameraLocation  *string  `json:"camera_location,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
}

// Validate requires doctor_id and event_type.
func (r *RecordRequest) Validate() error {
	if strings.TrimSpace(r.DoctorID) == "" || strings.TrimSpace(r.EventType) == "" {
		return ErrMissingFields
	}
	return nil
}

// AlertText renders the WhatsApp notification for an attendance event.
func AlertText(doctorName, eventType string, at time.Time) string {
	doctorName = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(doctorName), "Dr. "))
	if doctorName == "" {
		doctorName = UnknownDoctorName
	}
	return "DocConnect Attendance Alert: Dr. " + doctorName + " has " + strings.ToLower(eventType) +
		" at " + at.Format("1/2/2006, 3:04:05 PM") + "."
}
