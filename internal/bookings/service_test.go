package bookings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	schedule    *DoctorSchedule
	scheduleErr error
	booked      []string
	bookedErr   error
	insertErr   error
	inserted    []BookingRequest
}

func (s *stubStore) DoctorSchedule(_ context.Context, doctorID string) (*DoctorSchedule, error) {
	if s.scheduleErr != nil {
		return nil, s.scheduleErr
	}
	if s.schedule == nil {
		return nil, ErrDoctorNotFound
	}
	return s.schedule, nil
}

func (s *stubStore) BookedTimes(context.Context, string, string) ([]string, error) {
	if s.bookedErr != nil {
		return nil, s.bookedErr
	}
	return append([]string(nil), s.booked...), nil
}

func (s *stubStore) Insert(_ context.Context, req BookingRequest) (*Booking, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	s.inserted = append(s.inserted, req)
	s.booked = append(s.booked, req.AppointmentTime)
	return &Booking{
		ID:              "2b4c6f0e-6f3a-4f44-9d0c-1f6f1d2a9e10",
		DoctorID:        req.DoctorID,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		FullName:        req.FullName,
		Email:           req.Email,
	}, nil
}

type recordingNotifier struct {
	calls      int
	doctorName string
	err        error
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, _ Booking, doctorName string) error {
	n.calls++
	n.doctorName = doctorName
	return n.err
}

func griffithSchedule() *DoctorSchedule {
	return &DoctorSchedule{
		DoctorID:   "1",
		DoctorName: "Dr. James Griffith",
		Schedule: map[string]string{
			"monday": "9:00 AM - 5:00 PM",
			"sunday": "Closed",
		},
	}
}

func validRequest() BookingRequest {
	return BookingRequest{
		DoctorID:        "1",
		AppointmentDate: "2025-06-16",
		AppointmentTime: "11:00 AM",
		FullName:        "Ada Obi",
		Email:           "ada@example.com",
		Phone:           "+2348012345678",
		Gender:          "female",
		Age:             intPtr(34),
		ReasonForVisit:  "Chest pain",
	}
}

func intPtr(n int) *int { return &n }

func TestAvailableSlotsSubtractsBookedTimes(t *testing.T) {
	store := &stubStore{schedule: griffithSchedule(), booked: []string{"10:00 AM"}}
	svc := NewService(store, nil)

	slots, err := svc.AvailableSlots(context.Background(), "1", "2025-06-16")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"09:00 AM", "11:00 AM", "12:00 PM",
		"01:00 PM", "02:00 PM", "03:00 PM", "04:00 PM",
	}, slots)
}

func TestAvailableSlotsIsIdempotent(t *testing.T) {
	svc := NewService(&stubStore{schedule: griffithSchedule(), booked: []string{"02:00 PM"}}, nil)

	first, err := svc.AvailableSlots(context.Background(), "1", "2025-06-16")
	require.NoError(t, err)
	second, err := svc.AvailableSlots(context.Background(), "1", "2025-06-16")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBookedTimeLeavesAvailableSlots(t *testing.T) {
	store := &stubStore{schedule: griffithSchedule()}
	svc := NewService(store, nil)

	booking, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)

	slots, err := svc.AvailableSlots(context.Background(), "1", "2025-06-16")
	require.NoError(t, err)
	assert.NotContains(t, slots, "11:00 AM")
	assert.Equal(t, []string{
		"09:00 AM", "10:00 AM", "12:00 PM",
		"01:00 PM", "02:00 PM", "03:00 PM", "04:00 PM",
	}, slots)

	_, err = svc.Book(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Len(t, store.inserted, 1)
}

func TestAvailableSlotsClosedDay(t *testing.T) {
	svc := NewService(&stubStore{schedule: griffithSchedule()}, nil)

	slots, err := svc.AvailableSlots(context.Background(), "1", "2025-06-22")
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestAvailableSlotsMissingWeekday(t *testing.T) {
	svc := NewService(&stubStore{schedule: griffithSchedule()}, nil)

	slots, err := svc.AvailableSlots(context.Background(), "1", "2025-06-18")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailableSlotsUnparseableScheduleIsEmpty(t *testing.T) {
	sched := griffithSchedule()
	sched.Schedule["monday"] = "mornings only"
	svc := NewService(&stubStore{schedule: sched}, nil)

	slots, err := svc.AvailableSlots(context.Background(), "1", "2025-06-16")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailableSlotsDoctorNotFound(t *testing.T) {
	svc := NewService(&stubStore{}, nil)
	_, err := svc.AvailableSlots(context.Background(), "404", "2025-06-16")
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	svc = NewService(&stubStore{scheduleErr: errors.New("db down")}, nil)
	_, err = svc.AvailableSlots(context.Background(), "1", "2025-06-16")
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestAvailableSlotsBookingsLookupFailure(t *testing.T) {
	svc := NewService(&stubStore{schedule: griffithSchedule(), bookedErr: errors.New("timeout")}, nil)
	_, err := svc.AvailableSlots(context.Background(), "1", "2025-06-16")
	assert.ErrorIs(t, err, ErrBookingsLookup)
}

func TestAvailableSlotsInvalidDate(t *testing.T) {
	svc := NewService(&stubStore{schedule: griffithSchedule()}, nil)
	_, err := svc.AvailableSlots(context.Background(), "1", "next monday")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestBookSuccessNotifies(t *testing.T) {
	store := &stubStore{schedule: griffithSchedule()}
	notifier := &recordingNotifier{}
	svc := NewService(store, nil, WithNotifier(notifier))

	booking, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, "Dr. James Griffith", notifier.doctorName)
}

func TestBookNotifierFailureKeepsBooking(t *testing.T) {
	store := &stubStore{schedule: griffithSchedule()}
	svc := NewService(store, nil, WithNotifier(&recordingNotifier{err: errors.New("smtp down")}))

	booking, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotNil(t, booking)
}

func TestBookRejectsTakenSlot(t *testing.T) {
	store := &stubStore{schedule: griffithSchedule(), booked: []string{"11:00 AM"}}
	svc := NewService(store, nil)

	_, err := svc.Book(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Empty(t, store.inserted)
}

func TestBookRejectsTimeOutsideSchedule(t *testing.T) {
	store := &stubStore{schedule: griffithSchedule()}
	svc := NewService(store, nil)

	req := validRequest()
	req.AppointmentTime = "06:00 PM"
	_, err := svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Empty(t, store.inserted)
}

func TestBookAvailabilityErrorReportsSlotTaken(t *testing.T) {
	store := &stubStore{schedule: griffithSchedule(), bookedErr: errors.New("timeout")}
	svc := NewService(store, nil)

	_, err := svc.Book(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Empty(t, store.inserted)
}

func TestBookConcurrentInsertConflict(t *testing.T) {
	store := &stubStore{schedule: griffithSchedule(), insertErr: ErrSlotTaken}
	svc := NewService(store, nil)

	_, err := svc.Book(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookPropagatesWriteError(t *testing.T) {
	store := &stubStore{schedule: griffithSchedule(), insertErr: errors.New("bookings: insert booking: disk full")}
	svc := NewService(store, nil)

	_, err := svc.Book(context.Background(), validRequest())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotTaken)
	assert.Contains(t, err.Error(), "disk full")
}

func TestBookAcceptsInfantAge(t *testing.T) {
	store := &stubStore{schedule: griffithSchedule()}
	svc := NewService(store, nil)

	req := validRequest()
	req.Age = intPtr(0)
	req.ReasonForVisit = "Newborn checkup"
	_, err := svc.Book(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, 0, *store.inserted[0].Age)
}

func TestBookRejectsNegativeAge(t *testing.T) {
	store := &stubStore{schedule: griffithSchedule()}
	req := validRequest()
	req.Age = intPtr(-1)

	_, err := NewService(store, nil).Book(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidBooking)
	assert.Contains(t, err.Error(), "negative")
	assert.Empty(t, store.inserted)
}

func TestBookValidatesRequiredFields(t *testing.T) {
	svc := NewService(&stubStore{schedule: griffithSchedule()}, nil)

	req := validRequest()
	req.Email = ""
	req.Age = nil
	_, err := svc.Book(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidBooking)
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "age")
}
