package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var attendanceTracer = otel.Tracer("docconnect.internal.attendance")

// Querier is the subset of pgxpool.Pool used by the repository.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores attendance events.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db Querier) *PostgresRepository {
	if db == nil {
		panic("attendance: querier required")
	}
	return &PostgresRepository{db: db}
}

// Insert writes a new attendance row.
func (r *PostgresRepository) Insert(ctx context.Context, req *RecordRequest) (*Record, error) {
	ctx, span := attendanceTracer.Start(ctx, "attendance.insert")
	defer span.End()
	span.SetAttributes(
		attribute.String("docconnect.doctor_id", req.DoctorID),
		attribute.String("docconnect.event_type", req.EventType),
	)

	id := uuid.New()
	query := `
		INSERT INTO doctor_attendance (id, doctor_id, event_type, camera_location, confidence_score)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.DoctorID,
		req.EventType,
		req.CameraLocation,
		req.ConfidenceScore,
	).Scan(&createdAt); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("attendance: insert failed: %w", err)
	}

	return &Record{
		ID:              id.String(),
		DoctorID:        req.DoctorID,
		EventType:       req.EventType,
		CameraLocation:  req.CameraLocation,
		ConfidenceScore: req.ConfidenceScore,
		CreatedAt:       createdAt,
	}, nil
}
