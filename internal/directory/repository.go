package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var directoryTracer = otel.Tracer("docconnect.internal.directory")

// Querier is the subset of pgxpool.Pool used by the repository.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads doctors and treatments from Postgres.
type Repository struct {
	db Querier
}

// NewRepository creates a directory repository.
func NewRepository(db Querier) *Repository {
	if db == nil {
		panic("directory: querier required")
	}
	return &Repository{db: db}
}

const doctorColumns = `id, name, specialization, qualifications, experience,
	COALESCE(hospital, ''), consultation_fee::float8, languages,
	COALESCE(contact_email, ''), COALESCE(bio, ''), availability_schedule,
	COALESCE(realtime_status, ''), average_rating::float8, reviews_count,
	COALESCE(profile_photo_url, ''), COALESCE(location, ''), COALESCE(gender, '')`

// FindDoctors returns every doctor matching the filter. No limit is applied.
func (r *Repository) FindDoctors(ctx context.Context, filter DoctorFilter) ([]Doctor, error) {
	ctx, span := directoryTracer.Start(ctx, "directory.find_doctors")
	defer span.End()
	span.SetAttributes(
		attribute.String("docconnect.specialization", filter.Specialization),
		attribute.String("docconnect.name", filter.Name),
	)

	query := "SELECT " + doctorColumns + " FROM doctors WHERE 1=1"
	var args []any
	argIdx := 1
	if s := strings.TrimSpace(filter.Specialization); s != "" {
		query += fmt.Sprintf(" AND specialization ILIKE $%d", argIdx)
		args = append(args, likePattern(s))
		argIdx++
	}
	if s := strings.TrimSpace(filter.Name); s != "" {
		query += fmt.Sprintf(" AND name ILIKE $%d", argIdx)
		args = append(args, likePattern(s))
	}
	query += " ORDER BY name"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("directory: query doctors: %w", err)
	}
	defer rows.Close()

	doctors := []Doctor{}
	for rows.Next() {
		doc, err := scanDoctor(rows)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		doctors = append(doctors, *doc)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("directory: iterate doctors: %w", err)
	}
	return doctors, nil
}

// GetDoctor loads a single doctor by id.
func (r *Repository) GetDoctor(ctx context.Context, id string) (*Doctor, error) {
	ctx, span := directoryTracer.Start(ctx, "directory.get_doctor")
	defer span.End()

	row := r.db.QueryRow(ctx, "SELECT "+doctorColumns+" FROM doctors WHERE id = $1", id)
	doc, err := scanDoctor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		span.RecordError(err)
		return nil, err
	}
	return doc, nil
}

// DoctorName returns the display name stored for id.
func (r *Repository) DoctorName(ctx context.Context, id string) (string, error) {
	doc, err := r.GetDoctor(ctx, id)
	if err != nil {
		return "", fmt.Errorf("directory: doctor %s: %w", id, err)
	}
	return doc.Name, nil
}

// FindTreatments returns every treatment matching the filter.
func (r *Repository) FindTreatments(ctx context.Context, filter TreatmentFilter) ([]Treatment, error) {
	ctx, span := directoryTracer.Start(ctx, "directory.find_treatments")
	defer span.End()

	query := `SELECT id, name, specialization, COALESCE(description, ''), common_symptoms,
		COALESCE(duration, ''), COALESCE(cost_range, '') FROM treatments WHERE 1=1`
	var args []any
	argIdx := 1
	if s := strings.TrimSpace(filter.Name); s != "" {
		query += fmt.Sprintf(" AND name ILIKE $%d", argIdx)
		args = append(args, likePattern(s))
		argIdx++
	}
	if s := strings.TrimSpace(filter.Specialization); s != "" {
		query += fmt.Sprintf(" AND specialization ILIKE $%d", argIdx)
		args = append(args, likePattern(s))
	}
	query += " ORDER BY name"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("directory: query treatments: %w", err)
	}
	defer rows.Close()

	treatments := []Treatment{}
	for rows.Next() {
		var t Treatment
		if err := rows.Scan(&t.ID, &t.Name, &t.Specialization, &t.Description, &t.CommonSymptoms, &t.Duration, &t.CostRange); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("directory: scan treatment: %w", err)
		}
		treatments = append(treatments, t)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("directory: iterate treatments: %w", err)
	}
	return treatments, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var (
		doc      Doctor
		schedule []byte
	)
	if err := row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.Specialization,
		&doc.Qualifications,
		&doc.Experience,
		&doc.Hospital,
		&doc.ConsultationFee,
		&doc.Languages,
		&doc.ContactEmail,
		&doc.Bio,
		&schedule,
		&doc.RealtimeStatus,
		&doc.AverageRating,
		&doc.ReviewsCount,
		&doc.ProfilePhotoURL,
		&doc.Location,
		&doc.Gender,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("directory: scan doctor: %w", err)
	}
	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &doc.AvailabilitySchedule); err != nil {
			return nil, fmt.Errorf("directory: decode availability schedule for %s: %w", doc.ID, err)
		}
	}
	return &doc, nil
}

// likePattern escapes LIKE metacharacters so user text is matched literally.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
