package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// Querier is the subset of pgxpool.Pool used by the repository.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence helpers for bookings.
type Repository struct {
	db Querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(db Querier) *Repository {
	if db == nil {
		panic("bookings: querier required")
	}
	return &Repository{db: db}
}

// DoctorSchedule loads the doctor's name and weekly availability.
func (r *Repository) DoctorSchedule(ctx context.Context, doctorID string) (*DoctorSchedule, error) {
	var (
		sched DoctorSchedule
		raw   []byte
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, name, availability_schedule FROM doctors WHERE id = $1`,
		doctorID,
	).Scan(&sched.DoctorID, &sched.DoctorName, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("bookings: load doctor schedule: %w", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, ErrDoctorNotFound
	}
	if err := json.Unmarshal(raw, &sched.Schedule); err != nil {
		return nil, fmt.Errorf("bookings: decode doctor schedule: %w", err)
	}
	return &sched, nil
}

// BookedTimes returns the appointment_time values already taken for a
// doctor on a date.
func (r *Repository) BookedTimes(ctx context.Context, doctorID, date string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT appointment_time FROM bookings WHERE doctor_id = $1 AND appointment_date = $2::date`,
		doctorID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("bookings: query booked times: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("bookings: scan booked time: %w", err)
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: iterate booked times: %w", err)
	}
	return times, nil
}

// Insert writes a booking row. A collision on the unique slot index is
// reported as ErrSlotTaken.
func (r *Repository) Insert(ctx context.Context, req BookingRequest) (*Booking, error) {
	id := uuid.New()
	var createdAt time.Time
	err := r.db.QueryRow(ctx, `
		INSERT INTO bookings (id, doctor_id, appointment_date, appointment_time, full_name, email, phone, gender, age, reason_for_visit)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`,
		id,
		req.DoctorID,
		req.AppointmentDate,
		req.AppointmentTime,
		req.FullName,
		req.Email,
		req.Phone,
		strings.ToLower(req.Gender),
		nullableAge(req.Age),
		req.ReasonForVisit,
	).Scan(&createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("bookings: insert booking: %w", err)
	}

	return &Booking{
		ID:              id.String(),
		DoctorID:        req.DoctorID,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		FullName:        req.FullName,
		Email:           req.Email,
		Phone:           req.Phone,
		Gender:          strings.ToLower(req.Gender),
		Age:             ageOrZero(req.Age),
		ReasonForVisit:  req.ReasonForVisit,
		CreatedAt:       createdAt,
	}, nil
}

func nullableAge(age *int) any {
	if age == nil {
		return nil
	}
	return *age
}

func ageOrZero(age *int) int {
	if age == nil {
		return 0
	}
	return *age
}
