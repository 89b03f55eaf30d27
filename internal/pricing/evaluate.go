package pricing

import (
	"math"
	"slices"
	"time"

	"github.com/wolfman30/clinic-slots/internal/scheduling"
)

// Target is the slot being priced. At must be expressed in the clinic's
// time zone so weekday and time-of-day predicates see local wall time.
type Target struct {
	ServiceID string
	BasePrice float64
	At        time.Time
	Now       time.Time
}

// Quote is the outcome of evaluating a rule set against a target.
type Quote struct {
	BasePrice    float64  `json:"base_price"`
	FinalPrice   float64  `json:"final_price"`
	AppliedRules []string `json:"applied_rules"`
	// Savings is BasePrice-FinalPrice; negative for a surcharge.
	Savings         float64 `json:"savings"`
	DepositRequired float64 `json:"deposit_required,omitempty"`
}

// Evaluate folds the rules over the base price. Rules run in Ordered order and
// each matching rule adjusts the running price, so later rules compound on
// earlier ones. The result is rounded to cents and floored at zero.
func Evaluate(target Target, rules []Rule) Quote {
	price := target.BasePrice
	applied := []string{}

	for _, rule := range Ordered(rules) {
		if !rule.Matches(target) {
			continue
		}
		price = rule.apply(price)
		applied = append(applied, rule.Name)
	}

	final := math.Max(roundCents(price), 0)
	return Quote{
		BasePrice:    target.BasePrice,
		FinalPrice:   final,
		AppliedRules: applied,
		Savings:      roundCents(target.BasePrice - final),
	}
}

// Matches reports whether every predicate the rule sets holds for target.
func (r Rule) Matches(target Target) bool {
	if !r.appliesToService(target.ServiceID) {
		return false
	}
	if len(r.DaysOfWeek) > 0 && !slices.Contains(r.DaysOfWeek, int(target.At.Weekday())) {
		return false
	}

	clock := scheduling.ClockOf(target.At)
	if r.TimeStart != "" {
		start, err := scheduling.ParseClock(r.TimeStart)
		if err != nil || clock < start {
			return false
		}
	}
	if r.TimeEnd != "" {
		end, err := scheduling.ParseClock(r.TimeEnd)
		if err != nil || clock > end {
			return false
		}
	}

	hoursInAdvance := target.At.Sub(target.Now).Hours()
	if r.MinAdvanceHours != nil && hoursInAdvance < *r.MinAdvanceHours {
		return false
	}
	if r.MaxAdvanceHours != nil && hoursInAdvance > *r.MaxAdvanceHours {
		return false
	}

	day := dayNumber(target.At)
	if r.DateStart != nil && day < dayNumber(*r.DateStart) {
		return false
	}
	if r.DateEnd != nil && day > dayNumber(*r.DateEnd) {
		return false
	}
	return true
}

// dayNumber turns a calendar date into a sortable yyyymmdd integer.
func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// WithDeposit returns the quote with the deposit owed on its final price.
func (q Quote) WithDeposit(policy scheduling.BookingPolicy, serviceCap float64) Quote {
	q.DepositRequired = roundCents(policy.DepositFor(q.FinalPrice, serviceCap))
	return q
}
