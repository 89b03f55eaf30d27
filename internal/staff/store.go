// Package staff reads staff unavailability blocks.
package staff

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

// Store provides read access to staff_unavailability.
type Store struct {
	db DB
}

// NewStore creates a staff unavailability store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// ListBlocks returns every block for the clinic intersecting [from, to).
// Rows without a staff member are clinic-wide closures.
func (s *Store) ListBlocks(ctx context.Context, clinicID string, from, to time.Time) ([]scheduling.UnavailabilityBlock, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, start_datetime, end_datetime, staff_id::text, COALESCE(reason, '')
		FROM staff_unavailability
		WHERE clinic_id = $1
		  AND start_datetime < $3
		  AND end_datetime > $2
		ORDER BY start_datetime ASC`, clinicID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("staff: list blocks: %w", err)
	}
	defer rows.Close()

	blocks := []scheduling.UnavailabilityBlock{}
	for rows.Next() {
		var (
			b       scheduling.UnavailabilityBlock
			staffID pgtype.Text
		)
		if err := rows.Scan(&b.ID, &b.StartDateTime, &b.EndDateTime, &staffID, &b.Reason); err != nil {
			return nil, fmt.Errorf("staff: scan block: %w", err)
		}
		b.StaffID = staffID.String
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("staff: iterate blocks: %w", err)
	}
	return blocks, nil
}
