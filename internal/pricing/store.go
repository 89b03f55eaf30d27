package pricing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Store reads pricing rules from Postgres.
type Store struct {
	db *sql.DB
}

// NewStore creates a pricing rule store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const listActiveRulesSQL = `
	SELECT id, clinic_id, name, priority, applies_to_all, service_ids, days_of_week,
	       to_char(time_start, 'HH24:MI'), to_char(time_end, 'HH24:MI'),
	       min_advance_hours, max_advance_hours, date_start, date_end,
	       adjustment_type, adjustment_value, is_active, created_at
	FROM pricing_rules
	WHERE clinic_id = $1 AND is_active = true
	ORDER BY priority DESC, created_at ASC, id ASC`

// ListActive returns the clinic's active rules in evaluation order.
func (s *Store) ListActive(ctx context.Context, clinicID string) ([]Rule, error) {
	rows, err := s.db.QueryContext(ctx, listActiveRulesSQL, clinicID)
	if err != nil {
		return nil, fmt.Errorf("pricing: list active rules: %w", err)
	}
	defer rows.Close()

	rules := []Rule{}
	for rows.Next() {
		var (
			r                  Rule
			adjustment         string
			days               pq.Int64Array
			timeStart, timeEnd sql.NullString
			minAdvance, maxAdv sql.NullFloat64
			dateStart, dateEnd sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.ClinicID, &r.Name, &r.Priority, &r.AppliesToAll,
			pq.Array(&r.ServiceIDs), &days, &timeStart, &timeEnd,
			&minAdvance, &maxAdv, &dateStart, &dateEnd,
			&adjustment, &r.AdjustmentValue, &r.IsActive, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("pricing: scan rule: %w", err)
		}
		r.AdjustmentType = AdjustmentType(adjustment)
		if !r.AdjustmentType.Valid() {
			return nil, fmt.Errorf("pricing: rule %s has unknown adjustment type %q", r.ID, adjustment)
		}
		for _, d := range days {
			r.DaysOfWeek = append(r.DaysOfWeek, int(d))
		}
		r.TimeStart = timeStart.String
		r.TimeEnd = timeEnd.String
		r.MinAdvanceHours = nullFloat(minAdvance)
		r.MaxAdvanceHours = nullFloat(maxAdv)
		r.DateStart = nullTime(dateStart)
		r.DateEnd = nullTime(dateEnd)
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pricing: iterate rules: %w", err)
	}
	return rules, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
