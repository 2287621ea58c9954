package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorScheduleDecodesJSON(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	mock.ExpectQuery(`SELECT id, name, availability_schedule FROM doctors WHERE id = \$1`).
		WithArgs("1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "availability_schedule"}).
			AddRow("1", "Dr. James Griffith", []byte(`{"monday":"9:00 AM - 5:00 PM"}`)))

	sched, err := repo.DoctorSchedule(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Dr. James Griffith", sched.DoctorName)
	assert.Equal(t, "9:00 AM - 5:00 PM", sched.Schedule["monday"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorScheduleNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	mock.ExpectQuery(`FROM doctors WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.DoctorSchedule(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestBookedTimes(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	mock.ExpectQuery(`SELECT appointment_time FROM bookings WHERE doctor_id = \$1 AND appointment_date = \$2::date`).
		WithArgs("1", "2025-06-16").
		WillReturnRows(pgxmock.NewRows([]string{"appointment_time"}).AddRow("10:00 AM").AddRow("02:00 PM"))

	times, err := repo.BookedTimes(context.Background(), "1", "2025-06-16")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00 AM", "02:00 PM"}, times)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReturnsBooking(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	created := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)
	req := BookingRequest{
		DoctorID: "1", AppointmentDate: "2025-06-16", AppointmentTime: "11:00 AM",
		FullName: "Ada Obi", Email: "ada@example.com", Phone: "+2348012345678",
		Gender: "Female", Age: intPtr(34), ReasonForVisit: "Chest pain",
	}
	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(pgxmock.AnyArg(), "1", "2025-06-16", "11:00 AM", "Ada Obi", "ada@example.com", "+2348012345678", "female", 34, "Chest pain").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

	booking, err := repo.Insert(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, "female", booking.Gender)
	assert.Equal(t, created, booking.CreatedAt)
	assert.Equal(t, 34, booking.Age)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertMapsUniqueViolation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	mock.ExpectQuery(`INSERT INTO bookings`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "bookings_doctor_slot_key"})

	_, err = repo.Insert(context.Background(), BookingRequest{DoctorID: "1", AppointmentDate: "2025-06-16", AppointmentTime: "11:00 AM"})
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestInsertWrapsOtherErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	mock.ExpectQuery(`INSERT INTO bookings`).
		WillReturnError(errors.New("connection refused"))

	_, err = repo.Insert(context.Background(), BookingRequest{DoctorID: "1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotTaken)
	assert.Contains(t, err.Error(), "connection refused")
}
