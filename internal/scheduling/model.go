// Package scheduling computes bookable appointment slots for a clinic day.
//
// Everything in this package is pure: callers fetch working hours, policy,
// appointments and unavailability blocks up front and pass them in. Nothing
// here performs I/O or keeps state between calls.
package scheduling

import (
	"strings"
	"time"
)

// DayHours is the configured opening window for one weekday.
type DayHours struct {
	Enabled bool   `json:"enabled"`
	Open    string `json:"open"`  // "09:00" in 24-hour format
	Close   string `json:"close"` // "18:00" in 24-hour format
}

// WorkingHours maps lowercase weekday names ("sunday".."saturday") to hours.
type WorkingHours map[string]DayHours

// WeekdayKey returns the WorkingHours key for a weekday.
func WeekdayKey(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// ForDay returns the hours configured for the weekday and whether an entry exists.
func (w WorkingHours) ForDay(d time.Weekday) (DayHours, bool) {
	hours, ok := w[WeekdayKey(d)]
	return hours, ok
}

// BookingPolicy holds the per-clinic slot grid and booking window settings.
type BookingPolicy struct {
	SlotDurationMinutes int     `json:"slot_duration_minutes"`
	BufferMinutes       int     `json:"buffer_minutes"`
	MinAdvanceHours     float64 `json:"min_advance_hours"`
	// MaxAdvanceDays caps how far ahead a slot may be booked. Zero means unlimited.
	MaxAdvanceDays int `json:"max_advance_days"`

	RequireDeposit    bool    `json:"require_deposit"`
	DepositPercentage float64 `json:"deposit_percentage"`
	DepositAmount     float64 `json:"deposit_amount"`
}

// Step is the distance in minutes between consecutive slot starts.
func (p BookingPolicy) Step() int {
	return p.SlotDurationMinutes + p.BufferMinutes
}

// MinAdvance returns the minimum lead time as a duration.
func (p BookingPolicy) MinAdvance() time.Duration {
	return time.Duration(p.MinAdvanceHours * float64(time.Hour))
}

// Validate checks the policy invariants.
func (p BookingPolicy) Validate() error {
	switch {
	case p.SlotDurationMinutes <= 0:
		return &ValidationError{Field: "slot_duration_minutes", Reason: "must be greater than zero"}
	case p.BufferMinutes < 0:
		return &ValidationError{Field: "buffer_minutes", Reason: "must not be negative"}
	case p.MinAdvanceHours < 0:
		return &ValidationError{Field: "min_advance_hours", Reason: "must not be negative"}
	case p.MaxAdvanceDays < 0:
		return &ValidationError{Field: "max_advance_days", Reason: "must not be negative"}
	case p.DepositPercentage < 0 || p.DepositPercentage > 100:
		return &ValidationError{Field: "deposit_percentage", Reason: "must be between 0 and 100"}
	case p.DepositAmount < 0:
		return &ValidationError{Field: "deposit_amount", Reason: "must not be negative"}
	}
	return nil
}

// DepositFor returns the deposit owed for a booking at the given price.
// A percentage takes precedence over a fixed amount; serviceCap limits the
// result when positive.
func (p BookingPolicy) DepositFor(price, serviceCap float64) float64 {
	if !p.RequireDeposit {
		return 0
	}
	var deposit float64
	switch {
	case p.DepositPercentage > 0:
		deposit = price * p.DepositPercentage / 100
	case p.DepositAmount > 0:
		deposit = p.DepositAmount
	}
	if serviceCap > 0 && serviceCap < deposit {
		deposit = serviceCap
	}
	return deposit
}

// ClinicSchedule bundles everything the resolver needs to know about a clinic.
type ClinicSchedule struct {
	ClinicID     string        `json:"clinic_id"`
	Name         string        `json:"name,omitempty"`
	Timezone     string        `json:"timezone"` // e.g., "Asia/Bangkok"
	WorkingHours WorkingHours  `json:"working_hours"`
	Policy       BookingPolicy `json:"policy"`
}

// Location returns the clinic's time zone, falling back to UTC.
func (c *ClinicSchedule) Location() *time.Location {
	if c == nil || c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate rejects schedules the resolver cannot work with: missing weekdays,
// malformed clock strings, windows that do not close after they open, and
// policies that break their invariants.
func (c *ClinicSchedule) Validate() error {
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return &ValidationError{Field: "timezone", Reason: "unknown time zone " + c.Timezone}
		}
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		key := WeekdayKey(d)
		hours, ok := c.WorkingHours[key]
		if !ok {
			return &ValidationError{Field: "working_hours." + key, Reason: "missing entry"}
		}
		if !hours.Enabled {
			continue
		}
		if _, err := openWindow(hours); err != nil {
			return &ValidationError{Field: "working_hours." + key, Reason: err.Error()}
		}
	}
	return c.Policy.Validate()
}

// Service is a bookable catalog entry.
type Service struct {
	ID              string  `json:"id"`
	ClinicID        string  `json:"clinic_id"`
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	DepositRequired float64 `json:"deposit_required,omitempty"`
	IsActive        bool    `json:"is_active"`
}

// Duration returns the service length.
func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// AppointmentStatus is the lifecycle state of an existing booking.
type AppointmentStatus string

const (
	StatusPendingPayment AppointmentStatus = "pending_payment"
	StatusConfirmed      AppointmentStatus = "confirmed"
	StatusCompleted      AppointmentStatus = "completed"
	StatusNoShow         AppointmentStatus = "no_show"
	StatusCancelled      AppointmentStatus = "cancelled"
)

// Appointment is an existing booking read from the appointment store.
type Appointment struct {
	ID        string            `json:"id"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	StaffID   string            `json:"staff_id,omitempty"`
	Status    AppointmentStatus `json:"status"`
}

// Blocking reports whether the appointment still occupies its time.
func (a Appointment) Blocking() bool {
	return a.Status != StatusCancelled
}

// UnavailabilityBlock is staff time off, or a clinic closure when StaffID is empty.
type UnavailabilityBlock struct {
	ID            string    `json:"id"`
	StartDateTime time.Time `json:"start_date_time"`
	EndDateTime   time.Time `json:"end_date_time"`
	StaffID       string    `json:"staff_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

// ClinicWide reports whether the block applies to every staff member.
func (b UnavailabilityBlock) ClinicWide() bool {
	return b.StaffID == ""
}

// UnavailableReason explains why a candidate slot cannot be booked.
type UnavailableReason string

const (
	ReasonBooked              UnavailableReason = "booked"
	ReasonStaffUnavailable    UnavailableReason = "staff_unavailable"
	ReasonAdvanceNotice       UnavailableReason = "advance_notice"
	ReasonBeyondBookingWindow UnavailableReason = "beyond_booking_window"
	ReasonOutsideHours        UnavailableReason = "outside_working_hours"
)

// CandidateSlot is one computed start time for a service on a date.
type CandidateSlot struct {
	Time      string            `json:"time"`  // "HH:MM" clinic-local
	Start     time.Time         `json:"start"` // absolute instant in the clinic's zone
	Available bool              `json:"available"`
	StaffID   string            `json:"staff_id,omitempty"`
	Reason    UnavailableReason `json:"reason,omitempty"`
}
