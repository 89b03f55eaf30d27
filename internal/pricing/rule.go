// Package pricing applies a clinic's time- and demand-based pricing rules to a slot.
package pricing

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// AdjustmentType determines how a matching rule changes the running price.
type AdjustmentType string

const (
	AdjustPercentage    AdjustmentType = "percentage"
	AdjustFixedIncrease AdjustmentType = "fixed_increase"
	AdjustFixedDecrease AdjustmentType = "fixed_decrease"
	AdjustFixedPrice    AdjustmentType = "fixed_price"
)

// Valid reports whether t is a known adjustment type.
func (t AdjustmentType) Valid() bool {
	switch t {
	case AdjustPercentage, AdjustFixedIncrease, AdjustFixedDecrease, AdjustFixedPrice:
		return true
	}
	return false
}

// Rule is a single pricing rule. Unset predicate fields do not constrain.
type Rule struct {
	ID           string   `json:"id"`
	ClinicID     string   `json:"clinic_id"`
	Name         string   `json:"name"`
	Priority     int      `json:"priority"`
	AppliesToAll bool     `json:"applies_to_all"`
	ServiceIDs   []string `json:"service_ids,omitempty"`
	// DaysOfWeek uses 0=Sunday..6=Saturday.
	DaysOfWeek      []int      `json:"days_of_week,omitempty"`
	TimeStart       string     `json:"time_start,omitempty"` // "HH:MM", inclusive
	TimeEnd         string     `json:"time_end,omitempty"`   // "HH:MM", inclusive
	MinAdvanceHours *float64   `json:"min_advance_hours,omitempty"`
	MaxAdvanceHours *float64   `json:"max_advance_hours,omitempty"`
	DateStart       *time.Time `json:"date_start,omitempty"` // calendar date, inclusive
	DateEnd         *time.Time `json:"date_end,omitempty"`   // calendar date, inclusive

	AdjustmentType  AdjustmentType `json:"adjustment_type"`
	AdjustmentValue float64        `json:"adjustment_value"`
	IsActive        bool           `json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
}

// appliesToService reports whether the rule targets serviceID.
func (r Rule) appliesToService(serviceID string) bool {
	return r.AppliesToAll || slices.Contains(r.ServiceIDs, serviceID)
}

// apply returns price after the rule's adjustment.
func (r Rule) apply(price float64) float64 {
	switch r.AdjustmentType {
	case AdjustPercentage:
		return price * (1 + r.AdjustmentValue/100)
	case AdjustFixedIncrease:
		return price + r.AdjustmentValue
	case AdjustFixedDecrease:
		return price - r.AdjustmentValue
	case AdjustFixedPrice:
		return r.AdjustmentValue
	default:
		return price
	}
}

// Ordered returns the active rules in evaluation order: priority descending,
// then created_at ascending, then id ascending. The input is not modified.
func Ordered(rules []Rule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.IsActive {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b Rule) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
