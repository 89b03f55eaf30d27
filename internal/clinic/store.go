// Package clinic persists per-clinic schedule configuration.
package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-slots/internal/scheduling"
)

// DefaultSchedule returns a Monday to Friday 09:00-17:00 schedule on a
// 30 minute grid. It seeds new clinics before their first update.
func DefaultSchedule(clinicID, timezone string) *scheduling.ClinicSchedule {
	weekday := scheduling.DayHours{Enabled: true, Open: "09:00", Close: "17:00"}
	closed := scheduling.DayHours{Enabled: false, Open: "09:00", Close: "17:00"}
	return &scheduling.ClinicSchedule{
		ClinicID: clinicID,
		Timezone: timezone,
		WorkingHours: scheduling.WorkingHours{
			"sunday":    closed,
			"monday":    weekday,
			"tuesday":   weekday,
			"wednesday": weekday,
			"thursday":  weekday,
			"friday":    weekday,
			"saturday":  closed,
		},
		Policy: scheduling.BookingPolicy{
			SlotDurationMinutes: 30,
			MinAdvanceHours:     2,
		},
	}
}

// Store provides persistence for clinic schedules.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new clinic schedule store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key(clinicID string) string {
	return fmt.Sprintf("clinic:schedule:%s", clinicID)
}

// Get retrieves the clinic schedule. A missing clinic is a NotFoundError and a
// stored schedule that no longer validates is a ConfigError.
func (s *Store) Get(ctx context.Context, clinicID string) (*scheduling.ClinicSchedule, error) {
	data, err := s.redis.Get(ctx, s.key(clinicID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, &scheduling.NotFoundError{Resource: "clinic", ID: clinicID}
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: get schedule: %w", err)
	}

	var schedule scheduling.ClinicSchedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, &scheduling.ConfigError{ClinicID: clinicID, Reason: "unreadable schedule: " + err.Error()}
	}
	schedule.ClinicID = clinicID
	if err := schedule.Validate(); err != nil {
		return nil, &scheduling.ConfigError{ClinicID: clinicID, Reason: err.Error()}
	}
	return &schedule, nil
}

// Set validates and saves the clinic schedule.
func (s *Store) Set(ctx context.Context, schedule *scheduling.ClinicSchedule) error {
	if schedule.ClinicID == "" {
		return &scheduling.ValidationError{Field: "clinic_id", Reason: "required"}
	}
	if err := schedule.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("clinic: marshal schedule: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(schedule.ClinicID), data, 0).Err(); err != nil {
		return fmt.Errorf("clinic: set schedule: %w", err)
	}
	return nil
}

// Delete removes the clinic schedule. Deleting an unknown clinic is a no-op.
func (s *Store) Delete(ctx context.Context, clinicID string) error {
	if err := s.redis.Del(ctx, s.key(clinicID)).Err(); err != nil {
		return fmt.Errorf("clinic: delete schedule: %w", err)
	}
	return nil
}
