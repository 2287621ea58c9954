package bookings

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrDoctorNotFound is returned when the doctor or its schedule is missing.
	ErrDoctorNotFound = errors.New("bookings: doctor not found or availability not set")

	// ErrBookingsLookup is returned when existing bookings cannot be read.
	ErrBookingsLookup = errors.New("bookings: could not check existing bookings")

	// ErrSlotTaken is returned when the requested slot is not bookable, either
	// because the availability check excluded it or because the insert hit the
	// unique slot index.
	ErrSlotTaken = errors.New("bookings: slot no longer available")

	// ErrInvalidDate is returned when a date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("bookings: invalid date")

	// ErrInvalidBooking is returned when required booking fields are missing.
	ErrInvalidBooking = errors.New("bookings: invalid booking request")
)

// Booking is a persisted appointment.
type Booking struct {
	ID              string    `json:"id"`
	DoctorID        string    `json:"doctor_id"`
	AppointmentDate string    `json:"appointment_date"`
	AppointmentTime string    `json:"appointment_time"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Gender          string    `json:"gender"`
	Age             int       `json:"age"`
	ReasonForVisit  string    `json:"reason_for_visit"`
	CreatedAt       time.Time `json:"created_at"`
}

// BookingRequest carries the patient details collected by the assistant.
type BookingRequest struct {
	DoctorID        string `json:"doctor_id"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Gender          string `json:"gender"`
	Age             *int   `json:"age"` // nil when not collected; 0 is a valid infant age
	ReasonForVisit  string `json:"reason_for_visit"`
}

// Validate checks that every required field is present.
func (r BookingRequest) Validate() error {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("doctor_id", r.DoctorID)
	check("appointment_date", r.AppointmentDate)
	check("appointment_time", r.AppointmentTime)
	check("full_name", r.FullName)
	check("email", r.Email)
	check("phone", r.Phone)
	check("gender", r.Gender)
	check("reason_for_visit", r.ReasonForVisit)
	if r.Age == nil {
		missing = append(missing, "age")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidBooking, strings.Join(missing, ", "))
	}
	if *r.Age < 0 {
		return fmt.Errorf("%w: age must not be negative", ErrInvalidBooking)
	}
	return nil
}

// DoctorSchedule is the slice of a doctor row the slot calculator needs.
type DoctorSchedule struct {
	DoctorID   string
	DoctorName string
	Schedule   map[string]string
}
