package availability

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-slots/internal/scheduling"
)

const (
	dateLayout          = "2006-01-02"
	localDateTimeLayout = "2006-01-02T15:04"
)

// SlotsRequest asks for the candidate slots of one service on one date.
type SlotsRequest struct {
	ClinicID      string
	ServiceID     string
	Date          string // YYYY-MM-DD, clinic-local
	StaffID       string // optional
	IncludePrices bool
}

// PriceRequest asks for the price of a service at a specific time.
type PriceRequest struct {
	ClinicID  string
	ServiceID string
	// DateTime is clinic-local "YYYY-MM-DDTHH:MM" or an RFC3339 instant.
	DateTime string
}

// CheckRequest asks whether one specific start time can still be booked.
type CheckRequest struct {
	ClinicID  string `json:"clinic_id"`
	ServiceID string `json:"service_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	StaffID   string `json:"staff_id,omitempty"`
}

type slotsQuery struct {
	clinicID      string
	serviceID     string
	date          time.Time
	staffID       string
	includePrices bool
}

type priceQuery struct {
	clinicID  string
	serviceID string
	raw       string
}

type checkQuery struct {
	clinicID  string
	serviceID string
	date      time.Time
	minutes   int
	staffID   string
}

func (r SlotsRequest) parse() (slotsQuery, error) {
	q := slotsQuery{includePrices: r.IncludePrices}
	var err error
	if q.clinicID, err = parseID("clinic_id", r.ClinicID, true); err != nil {
		return q, err
	}
	if q.serviceID, err = parseID("service_id", r.ServiceID, true); err != nil {
		return q, err
	}
	if q.staffID, err = parseID("staff_id", r.StaffID, false); err != nil {
		return q, err
	}
	if q.date, err = parseDate(r.Date); err != nil {
		return q, err
	}
	return q, nil
}

func (r PriceRequest) parse() (priceQuery, error) {
	q := priceQuery{raw: strings.TrimSpace(r.DateTime)}
	var err error
	if q.clinicID, err = parseID("clinic_id", r.ClinicID, true); err != nil {
		return q, err
	}
	if q.serviceID, err = parseID("service_id", r.ServiceID, true); err != nil {
		return q, err
	}
	if _, err = parseDateTime(q.raw, time.UTC); err != nil {
		return q, err
	}
	return q, nil
}

func (r CheckRequest) parse() (checkQuery, error) {
	var q checkQuery
	var err error
	if q.clinicID, err = parseID("clinic_id", r.ClinicID, true); err != nil {
		return q, err
	}
	if q.serviceID, err = parseID("service_id", r.ServiceID, true); err != nil {
		return q, err
	}
	if q.staffID, err = parseID("staff_id", r.StaffID, false); err != nil {
		return q, err
	}
	if q.date, err = parseDate(r.Date); err != nil {
		return q, err
	}
	if strings.TrimSpace(r.Time) == "" {
		return q, &scheduling.ValidationError{Field: "time", Reason: "required"}
	}
	if q.minutes, err = scheduling.ParseClock(strings.TrimSpace(r.Time)); err != nil {
		return q, &scheduling.ValidationError{Field: "time", Reason: "expected HH:MM"}
	}
	return q, nil
}

// parseID validates a UUID and returns it in canonical form.
func parseID(field, raw string, required bool) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return "", &scheduling.ValidationError{Field: field, Reason: "required"}
		}
		return "", nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", &scheduling.ValidationError{Field: field, Reason: "must be a UUID"}
	}
	return id.String(), nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &scheduling.ValidationError{Field: "date", Reason: "required"}
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, &scheduling.ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	return d, nil
}

// parseDateTime reads an RFC3339 instant, or a wall-clock time in loc.
func parseDateTime(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, &scheduling.ValidationError{Field: "datetime", Reason: "required"}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation(localDateTimeLayout, raw, loc); err == nil {
		return t, nil
	}
	return time.Time{}, &scheduling.ValidationError{Field: "datetime", Reason: "expected YYYY-MM-DDTHH:MM or RFC3339"}
}
