package scheduling

import (
	"fmt"
	"time"
)

// GenerateSlots tiles the window with candidate start times, in minutes since
// midnight. Starts advance by slotDuration+buffer and a start is kept while
// start+serviceDuration <= Close, so a service ending exactly at closing fits.
func GenerateSlots(w Window, slotDuration, serviceDuration, buffer int) ([]int, error) {
	if slotDuration <= 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("slot duration %d must be positive", slotDuration)}
	}
	if buffer < 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("buffer %d must not be negative", buffer)}
	}
	if serviceDuration <= 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("service duration %d must be positive", serviceDuration)}
	}

	step := slotDuration + buffer
	starts := make([]int, 0, w.Minutes()/step+1)
	for current := w.Open; current+serviceDuration <= w.Close; current += step {
		starts = append(starts, current)
	}
	return starts, nil
}

// Candidates turns minute offsets into slots anchored on date's calendar day in loc.
// Every slot starts out available; FilterConflicts decides otherwise. Starts
// that fall in a daylight-saving gap do not exist on that day and are dropped.
func Candidates(date time.Time, starts []int, loc *time.Location) []CandidateSlot {
	slots := make([]CandidateSlot, 0, len(starts))
	for _, m := range starts {
		start, ok := WallClock(date, m, loc)
		if !ok {
			continue
		}
		slots = append(slots, CandidateSlot{
			Time:      FormatClock(m),
			Start:     start,
			Available: true,
		})
	}
	return slots
}
