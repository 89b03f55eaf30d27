// Package bookings reads existing appointments for conflict checks.
package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/wolfman30/clinic-slots/internal/scheduling"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository provides read access to appointments.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool or mock.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("bookings: db required")
	}
	return &Repository{db: db}
}

// ListOverlapping returns the clinic's non-cancelled appointments that
// intersect [from, to). Staff filtering happens in the scheduling core so
// that one query serves both clinic-wide and per-staff searches.
func (r *Repository) ListOverlapping(ctx context.Context, clinicID string, from, to time.Time) ([]scheduling.Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, start_time, end_time, staff_id::text, status
		FROM appointments
		WHERE clinic_id = $1
		  AND status <> 'cancelled'
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time ASC`, clinicID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("bookings: list overlapping: %w", err)
	}
	defer rows.Close()

	appointments := []scheduling.Appointment{}
	for rows.Next() {
		var (
			appt    scheduling.Appointment
			staffID pgtype.Text
			status  string
		)
		if err := rows.Scan(&appt.ID, &appt.StartTime, &appt.EndTime, &staffID, &status); err != nil {
			return nil, fmt.Errorf("bookings: scan appointment: %w", err)
		}
		if staffID.Valid {
			appt.StaffID = staffID.String
		}
		appt.Status = scheduling.AppointmentStatus(status)
		appointments = append(appointments, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: iterate appointments: %w", err)
	}
	return appointments, nil
}
