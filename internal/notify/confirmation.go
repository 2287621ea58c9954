package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/docconnect-ai/internal/bookings"
	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

// MessageSender delivers a short text to a patient's phone, e.g. WhatsApp.
type MessageSender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// ConfirmationService tells patients about their confirmed appointments.
// It satisfies bookings.Notifier.
type ConfirmationService struct {
	email        EmailSender
	messenger    MessageSender
	hospitalName string
	logger       *logging.Logger
}

// NewConfirmationService builds a confirmation service. messenger may be nil.
func NewConfirmationService(email EmailSender, messenger MessageSender, hospitalName string, logger *logging.Logger) *ConfirmationService {
	if email == nil {
		panic("notify: email sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ConfirmationService{
		email:        email,
		messenger:    messenger,
		hospitalName: hospitalName,
		logger:       logger,
	}
}

var _ bookings.Notifier = (*ConfirmationService)(nil)

// BookingConfirmed emails the patient and, when a messenger is configured,
// sends a WhatsApp copy to their phone.
func (s *ConfirmationService) BookingConfirmed(ctx context.Context, booking bookings.Booking, doctorName string) error {
	var errs []error

	if strings.TrimSpace(booking.Email) != "" {
		msg := EmailMessage{
			To:      booking.Email,
			ToName:  booking.FullName,
			Subject: ConfirmationSubject(s.hospitalName),
			Body:    ConfirmationBody(booking, doctorName, s.hospitalName),
		}
		if err := s.email.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}

	if s.messenger != nil && strings.TrimSpace(booking.Phone) != "" {
		if _, err := s.messenger.Send(ctx, booking.Phone, ConfirmationLine(doctorName, booking)); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d confirmation(s) failed: %w", len(errs), errors.Join(errs...))
	}
	s.logger.Info("booking confirmation sent", "booking_id", booking.ID, "doctor_id", booking.DoctorID)
	return nil
}

// ConfirmationSubject is the subject line of a confirmation email.
func ConfirmationSubject(hospitalName string) string {
	if hospitalName == "" {
		return "Your appointment is confirmed"
	}
	return "Your appointment at " + hospitalName + " is confirmed"
}

// ConfirmationLine is the one-line summary used in chat and WhatsApp.
func ConfirmationLine(doctorName string, booking bookings.Booking) string {
	return fmt.Sprintf("Appointment confirmed with %s on %s at %s", doctorName, displayDate(booking.AppointmentDate), booking.AppointmentTime)
}

// ConfirmationBody renders the plain-text email body.
func ConfirmationBody(booking bookings.Booking, doctorName, hospitalName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", booking.FullName)
	b.WriteString(ConfirmationLine(doctorName, booking))
	b.WriteString(".\n\n")
	fmt.Fprintf(&b, "Reason for visit: %s\n", booking.ReasonForVisit)
	if booking.ID != "" {
		fmt.Fprintf(&b, "Booking reference: %s\n", booking.ID)
	}
	b.WriteString("\nPlease arrive 15 minutes early and bring a photo ID.\n")
	if hospitalName != "" {
		fmt.Fprintf(&b, "\n%s", hospitalName)
	}
	return b.String()
}

func displayDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2, 2006")
}
