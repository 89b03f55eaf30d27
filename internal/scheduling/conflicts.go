package scheduling

import "time"

// Overlaps reports whether [s1,e1) and [s2,e2) intersect. Touching ends do not count.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && e1.After(s2)
}

// ConflictCheck carries the day's bookings and the rules a slot must satisfy.
type ConflictCheck struct {
	Appointments []Appointment
	Blocks       []UnavailabilityBlock
	// StaffID scopes the search. Empty means any staff member's conflict blocks the slot.
	StaffID        string
	Now            time.Time
	MinAdvance     time.Duration
	MaxAdvanceDays int
}

// Evaluate returns why [start,end) cannot be booked, or "" when it can.
// Overlap checks run first and the advance-notice rules last; the first
// failing rule wins.
func (c ConflictCheck) Evaluate(start, end time.Time) UnavailableReason {
	for _, a := range c.Appointments {
		if !a.Blocking() || !c.scoped(a.StaffID) {
			continue
		}
		if Overlaps(start, end, a.StartTime, a.EndTime) {
			return ReasonBooked
		}
	}
	for _, b := range c.Blocks {
		if !b.ClinicWide() && !c.scoped(b.StaffID) {
			continue
		}
		if Overlaps(start, end, b.StartDateTime, b.EndDateTime) {
			return ReasonStaffUnavailable
		}
	}

	lead := start.Sub(c.Now)
	if lead < c.MinAdvance {
		return ReasonAdvanceNotice
	}
	if c.MaxAdvanceDays > 0 && lead > time.Duration(c.MaxAdvanceDays)*24*time.Hour {
		return ReasonBeyondBookingWindow
	}
	return ""
}

func (c ConflictCheck) scoped(staffID string) bool {
	return c.StaffID == "" || staffID == c.StaffID
}

// FilterConflicts annotates each slot with availability for a service of the
// given length. The returned slice is a new slice in the same order; the
// requested staff id is echoed on every slot.
func FilterConflicts(slots []CandidateSlot, length time.Duration, check ConflictCheck) []CandidateSlot {
	out := make([]CandidateSlot, len(slots))
	for i, slot := range slots {
		slot.StaffID = check.StaffID
		slot.Reason = check.Evaluate(slot.Start, slot.Start.Add(length))
		slot.Available = slot.Reason == ""
		out[i] = slot
	}
	return out
}
