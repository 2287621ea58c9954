package bookings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/docconnect-ai/internal/observability/metrics"
	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

var bookingsTracer = otel.Tracer("docconnect.internal.bookings")

// Store is the persistence surface the service needs.
type Store interface {
	DoctorSchedule(ctx context.Context, doctorID string) (*DoctorSchedule, error)
	BookedTimes(ctx context.Context, doctorID, date string) ([]string, error)
	Insert(ctx context.Context, req BookingRequest) (*Booking, error)
}

// Notifier is told about confirmed bookings. Failures are logged and never
// undo the booking.
type Notifier interface {
	BookingConfirmed(ctx context.Context, booking Booking, doctorName string) error
}

// Service computes availability and books appointments.
type Service struct {
	store    Store
	notifier Notifier
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
}

// Option customizes the Service.
type Option func(*Service)

// WithNotifier sends a confirmation after each successful booking.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics records booking outcomes.
func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService builds a booking service.
func NewService(store Store, logger *logging.Logger, opts ...Option) *Service {
	if store == nil {
		panic("bookings: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{store: store, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AvailableSlots lists the open hourly slots for a doctor on a YYYY-MM-DD
// date. The result is never nil; a closed day or an unparseable schedule
// yields an empty list.
func (s *Service) AvailableSlots(ctx context.Context, doctorID, date string) ([]string, error) {
	slots, _, err := s.availableSlots(ctx, doctorID, date)
	return slots, err
}

func (s *Service) availableSlots(ctx context.Context, doctorID, date string) ([]string, *DoctorSchedule, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.available_slots")
	defer span.End()
	span.SetAttributes(
		attribute.String("docconnect.doctor_id", doctorID),
		attribute.String("docconnect.date", date),
	)

	weekday, err := WeekdayKey(date)
	if err != nil {
		return nil, nil, err
	}

	sched, err := s.store.DoctorSchedule(ctx, doctorID)
	if err != nil {
		if !errors.Is(err, ErrDoctorNotFound) {
			s.logger.Error("failed to load doctor schedule", "doctor_id", doctorID, "error", err)
			span.RecordError(err)
		}
		return nil, nil, ErrDoctorNotFound
	}

	daySchedule := sched.Schedule[weekday]
	if IsClosed(daySchedule) {
		return []string{}, sched, nil
	}
	window, err := ParseWindow(daySchedule)
	if err != nil {
		s.logger.Warn("unparseable doctor schedule", "doctor_id", doctorID, "weekday", weekday, "schedule", daySchedule, "error", err)
		return []string{}, sched, nil
	}

	booked, err := s.store.BookedTimes(ctx, doctorID, date)
	if err != nil {
		s.logger.Error("failed to load booked times", "doctor_id", doctorID, "date", date, "error", err)
		span.RecordError(err)
		return nil, nil, fmt.Errorf("%w: %v", ErrBookingsLookup, err)
	}

	slots := []string{}
	for _, slot := range window.Slots() {
		if slices.Contains(booked, slot) {
			continue
		}
		slots = append(slots, slot)
	}
	return slots, sched, nil
}

// Book re-checks availability and writes the booking. Any failure of the
// availability check, or a slot that is not offered, is reported as
// ErrSlotTaken. The unique slot index is the final arbiter for concurrent
// requests.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("docconnect.doctor_id", req.DoctorID),
		attribute.String("docconnect.date", req.AppointmentDate),
		attribute.String("docconnect.time", req.AppointmentTime),
	)

	if err := req.Validate(); err != nil {
		s.metrics.ObserveBooking("invalid")
		return nil, err
	}

	slots, sched, err := s.availableSlots(ctx, req.DoctorID, req.AppointmentDate)
	if err != nil || !slices.Contains(slots, req.AppointmentTime) {
		s.metrics.ObserveBooking("slot_taken")
		return nil, ErrSlotTaken
	}

	booking, err := s.store.Insert(ctx, req)
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.logger.Info("slot taken by concurrent booking", "doctor_id", req.DoctorID, "date", req.AppointmentDate, "time", req.AppointmentTime)
			s.metrics.ObserveBooking("slot_taken")
			return nil, ErrSlotTaken
		}
		span.RecordError(err)
		s.metrics.ObserveBooking("error")
		return nil, err
	}
	s.metrics.ObserveBooking("booked")
	s.logger.Info("appointment booked", "booking_id", booking.ID, "doctor_id", booking.DoctorID, "date", booking.AppointmentDate, "time", booking.AppointmentTime)

	if s.notifier != nil {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.notifier.BookingConfirmed(notifyCtx, *booking, sched.DoctorName); err != nil {
			s.logger.Warn("booking confirmation failed", "booking_id", booking.ID, "error", err)
		}
	}
	return booking, nil
}
