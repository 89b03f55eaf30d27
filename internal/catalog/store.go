// Package catalog reads bookable services from Postgres.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wolfman30/clinic-slots/internal/scheduling"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides read access to bookable_services.
type Store struct {
	db DB
}

// NewStore creates a catalog store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const serviceColumns = `id::text, clinic_id::text, name, duration_minutes, price::float8, COALESCE(deposit_required, 0)::float8, is_active`

// GetService returns an active service belonging to the clinic. Unknown,
// inactive or foreign services are reported as scheduling.NotFoundError.
func (s *Store) GetService(ctx context.Context, clinicID, serviceID string) (*scheduling.Service, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM bookable_services
		WHERE id = $1 AND clinic_id = $2 AND is_active = true`, serviceID, clinicID)

	svc, err := scanService(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &scheduling.NotFoundError{Resource: "service", ID: serviceID}
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get service: %w", err)
	}
	return svc, nil
}

func scanService(row pgx.Row) (*scheduling.Service, error) {
	var svc scheduling.Service
	if err := row.Scan(&svc.ID, &svc.ClinicID, &svc.Name, &svc.DurationMinutes,
		&svc.Price, &svc.DepositRequired, &svc.IsActive); err != nil {
		return nil, err
	}
	return &svc, nil
}
